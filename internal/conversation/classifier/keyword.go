package classifier

import (
	"context"
	"strings"

	convdomain "expoconnect_backend/internal/conversation/domain"
)

// keywordSets holds the per-intent phrase lists. Matching is
// case-insensitive substring containment against the full message.
var keywordSets = map[convdomain.IntentKind][]string{
	convdomain.IntentDemoRequest: {
		"demo", "schedule demo", "book demo", "demo schedule",
	},
	convdomain.IntentMeetingRequest: {
		"meeting", "schedule meeting", "call", "schedule call",
	},
	convdomain.IntentIssueReport: {
		"problem", "issue", "not working", "error", "trouble",
	},
	convdomain.IntentGeneralQuery: {
		"hi", "hello", "hey", "thanks", "thank you", "price", "pricing",
		"brochure", "details", "info",
	},
}

// kindPriority breaks ties between kinds with equal match counts.
// Lower value wins.
var kindPriority = map[convdomain.IntentKind]int{
	convdomain.IntentCorrection:     0,
	convdomain.IntentDemoRequest:    1,
	convdomain.IntentMeetingRequest: 2,
	convdomain.IntentIssueReport:    3,
	convdomain.IntentGeneralQuery:   4,
}

// keywordConfidenceFloor keeps any keyword hit above the classifier's
// trust threshold; a single strong keyword is enough to act on.
const keywordConfidenceFloor = 0.6

// KeywordLayer scores each intent kind by how many of its keywords appear
// in the message and returns the best-scoring kind.
type KeywordLayer struct{}

// NewKeywordLayer creates the keyword layer.
func NewKeywordLayer() *KeywordLayer {
	return &KeywordLayer{}
}

var _ Layer = (*KeywordLayer)(nil)

func (l *KeywordLayer) Name() convdomain.LayerName {
	return convdomain.LayerKeyword
}

func (l *KeywordLayer) Classify(_ context.Context, in Input) (convdomain.IntentResult, bool) {
	text := strings.ToLower(in.Text)

	bestKind := convdomain.IntentUnknown
	bestMatches := 0
	bestConfidence := 0.0

	for kind, keywords := range keywordSets {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		confidence := float64(matches) / float64(len(keywords))
		if confidence < keywordConfidenceFloor {
			confidence = keywordConfidenceFloor
		}

		if matches > bestMatches ||
			(matches == bestMatches && kindPriority[kind] < kindPriority[bestKind]) {
			bestKind = kind
			bestMatches = matches
			bestConfidence = confidence
		}
	}

	if bestMatches == 0 {
		return convdomain.IntentResult{}, false
	}

	return convdomain.IntentResult{
		Kind:       bestKind,
		Confidence: bestConfidence,
		Layer:      convdomain.LayerKeyword,
	}, true
}
