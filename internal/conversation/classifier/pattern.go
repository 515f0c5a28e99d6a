package classifier

import (
	"context"
	"strings"

	convdomain "expoconnect_backend/internal/conversation/domain"
	"expoconnect_backend/internal/conversation/correction"
)

// yesTokens and noTokens are matched against the whole trimmed message,
// not as substrings, so "no problem with that" does not read as a denial.
var yesTokens = map[string]bool{
	"yes":     true,
	"yeah":    true,
	"yep":     true,
	"correct": true,
	"confirm": true,
	"ok":      true,
	"okay":    true,
	"right":   true,
	"sahi":    true,
}

var noTokens = map[string]bool{
	"no":        true,
	"nope":      true,
	"wrong":     true,
	"incorrect": true,
	"galat":     true,
}

// correctionVerbs and fieldTokens together catch corrections phrased as
// requests ("please change my designation") that carry no Field-Value
// directive. A verb alone is not enough; "change" shows up in ordinary
// chatter.
var correctionVerbs = map[string]bool{
	"correct": true,
	"change":  true,
}

var fieldTokens = map[string]bool{
	"name":        true,
	"company":     true,
	"phone":       true,
	"mobile":      true,
	"number":      true,
	"email":       true,
	"mail":        true,
	"designation": true,
	"role":        true,
	"address":     true,
}

// PatternLayer is the deterministic first layer: explicit correction
// syntax and bare yes/no answers. Confidence is always 1.0 on a match.
type PatternLayer struct{}

// NewPatternLayer creates the pattern layer.
func NewPatternLayer() *PatternLayer {
	return &PatternLayer{}
}

var _ Layer = (*PatternLayer)(nil)

func (l *PatternLayer) Name() convdomain.LayerName {
	return convdomain.LayerPattern
}

func (l *PatternLayer) Classify(_ context.Context, in Input) (convdomain.IntentResult, bool) {
	normalized := strings.ToLower(strings.TrimSpace(in.Text))
	normalized = strings.Trim(normalized, ".,!? ")

	if yesTokens[normalized] {
		return convdomain.IntentResult{
			Kind:       convdomain.IntentConfirmationYes,
			Confidence: 1.0,
			Layer:      convdomain.LayerPattern,
		}, true
	}
	if noTokens[normalized] {
		return convdomain.IntentResult{
			Kind:       convdomain.IntentConfirmationNo,
			Confidence: 1.0,
			Layer:      convdomain.LayerPattern,
		}, true
	}

	if _, ok := correction.Parse(in.Text); ok {
		return convdomain.IntentResult{
			Kind:       convdomain.IntentCorrection,
			Confidence: 1.0,
			Layer:      convdomain.LayerPattern,
		}, true
	}

	if hasCorrectionRequest(normalized) {
		return convdomain.IntentResult{
			Kind:       convdomain.IntentCorrection,
			Confidence: 1.0,
			Layer:      convdomain.LayerPattern,
		}, true
	}

	return convdomain.IntentResult{}, false
}

// hasCorrectionRequest reports whether the message pairs a correction
// verb with a field token, in either order.
func hasCorrectionRequest(normalized string) bool {
	var verb, field bool
	for _, word := range strings.Fields(normalized) {
		word = strings.Trim(word, ".,!?:;")
		if correctionVerbs[word] {
			verb = true
		}
		if fieldTokens[word] {
			field = true
		}
	}
	return verb && field
}
