package classifier

import (
	"context"
	"testing"

	convdomain "expoconnect_backend/internal/conversation/domain"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	"expoconnect_backend/platform/logger"
)

// countingLayer records how often it is consulted.
type countingLayer struct {
	name   convdomain.LayerName
	result convdomain.IntentResult
	ok     bool
	calls  int
}

func (l *countingLayer) Name() convdomain.LayerName { return l.name }

func (l *countingLayer) Classify(_ context.Context, _ Input) (convdomain.IntentResult, bool) {
	l.calls++
	return l.result, l.ok
}

func testLogger() *logger.Logger {
	return logger.New("test")
}

func TestCorrectionSyntaxNeverReachesAILayer(t *testing.T) {
	ai := &countingLayer{name: convdomain.LayerAI}
	c := New(testLogger(), NewPatternLayer(), NewKeywordLayer(), ai)

	texts := []string{
		"Designation-HR",
		"Name: Priya Sharma",
		"email: priya@acme.com",
		"mobile - 9876543210",
	}

	for _, text := range texts {
		result := c.Classify(context.Background(), Input{
			Text:  text,
			State: leadsdomain.StateExtractionDone,
		})
		if result.Kind != convdomain.IntentCorrection {
			t.Errorf("Classify(%q) kind = %q, want correction", text, result.Kind)
		}
		if result.Layer != convdomain.LayerPattern {
			t.Errorf("Classify(%q) layer = %q, want pattern", text, result.Layer)
		}
		if result.Confidence != 1.0 {
			t.Errorf("Classify(%q) confidence = %v, want 1.0", text, result.Confidence)
		}
	}

	if ai.calls != 0 {
		t.Errorf("AI layer was consulted %d times, want 0", ai.calls)
	}
}

func TestCorrectionVerbWithFieldToken(t *testing.T) {
	ai := &countingLayer{name: convdomain.LayerAI}
	c := New(testLogger(), NewPatternLayer(), NewKeywordLayer(), ai)

	tests := []struct {
		text string
		want convdomain.IntentKind
	}{
		{"please change my designation", convdomain.IntentCorrection},
		{"correct the company name", convdomain.IntentCorrection},
		{"My email is wrong, change it", convdomain.IntentCorrection},
		// A verb without a field token is ordinary chatter.
		{"can we change the meeting to tomorrow", convdomain.IntentMeetingRequest},
	}

	for _, tt := range tests {
		result := c.Classify(context.Background(), Input{
			Text:  tt.text,
			State: leadsdomain.StateExtractionDone,
		})
		if result.Kind != tt.want {
			t.Errorf("Classify(%q) kind = %q, want %q", tt.text, result.Kind, tt.want)
		}
		if tt.want == convdomain.IntentCorrection && result.Layer != convdomain.LayerPattern {
			t.Errorf("Classify(%q) layer = %q, want pattern", tt.text, result.Layer)
		}
	}

	if ai.calls != 0 {
		t.Errorf("AI layer was consulted %d times, want 0", ai.calls)
	}
}

func TestYesNoTokens(t *testing.T) {
	c := New(testLogger(), NewPatternLayer(), NewKeywordLayer())

	yes := []string{"yes", "Yes.", "OKAY", "sahi", "correct"}
	for _, text := range yes {
		result := c.Classify(context.Background(), Input{Text: text})
		if result.Kind != convdomain.IntentConfirmationYes {
			t.Errorf("Classify(%q) kind = %q, want confirmation_yes", text, result.Kind)
		}
	}

	no := []string{"no", "Nope", "wrong", "galat"}
	for _, text := range no {
		result := c.Classify(context.Background(), Input{Text: text})
		if result.Kind != convdomain.IntentConfirmationNo {
			t.Errorf("Classify(%q) kind = %q, want confirmation_no", text, result.Kind)
		}
	}
}

func TestKeywordLayerScoring(t *testing.T) {
	c := New(testLogger(), NewPatternLayer(), NewKeywordLayer())

	tests := []struct {
		text string
		want convdomain.IntentKind
	}{
		{"please schedule a demo tomorrow", convdomain.IntentDemoRequest},
		{"can we book demo at your booth", convdomain.IntentDemoRequest},
		{"let's have a meeting next week", convdomain.IntentMeetingRequest},
		{"the device is not working, some error shows up", convdomain.IntentIssueReport},
		{"what is the pricing", convdomain.IntentGeneralQuery},
	}

	for _, tt := range tests {
		result := c.Classify(context.Background(), Input{Text: tt.text})
		if result.Kind != tt.want {
			t.Errorf("Classify(%q) kind = %q, want %q", tt.text, result.Kind, tt.want)
		}
		if result.Layer != convdomain.LayerKeyword {
			t.Errorf("Classify(%q) layer = %q, want keyword", tt.text, result.Layer)
		}
		if result.Confidence < convdomain.MinConfidence {
			t.Errorf("Classify(%q) confidence = %v, below threshold", tt.text, result.Confidence)
		}
	}
}

func TestShortCircuitOnFirstConfidentLayer(t *testing.T) {
	first := &countingLayer{
		name: convdomain.LayerPattern,
		result: convdomain.IntentResult{
			Kind: convdomain.IntentDemoRequest, Confidence: 1.0, Layer: convdomain.LayerPattern,
		},
		ok: true,
	}
	second := &countingLayer{name: convdomain.LayerKeyword}

	c := New(testLogger(), first, second)
	result := c.Classify(context.Background(), Input{Text: "anything"})

	if result.Kind != convdomain.IntentDemoRequest {
		t.Errorf("kind = %q, want demo_request", result.Kind)
	}
	if second.calls != 0 {
		t.Errorf("second layer consulted %d times, want 0", second.calls)
	}
}

func TestUnconfidentLayersFallThroughToUnknown(t *testing.T) {
	weak := &countingLayer{
		name: convdomain.LayerKeyword,
		result: convdomain.IntentResult{
			Kind: convdomain.IntentGeneralQuery, Confidence: 0.2, Layer: convdomain.LayerKeyword,
		},
		ok: true,
	}

	c := New(testLogger(), weak)
	result := c.Classify(context.Background(), Input{Text: "???"})

	if result.Kind != convdomain.IntentUnknown {
		t.Errorf("kind = %q, want unknown", result.Kind)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", result.Confidence)
	}
}

func TestGibberishIsUnknownWithoutAI(t *testing.T) {
	c := New(testLogger(), NewPatternLayer(), NewKeywordLayer())

	result := c.Classify(context.Background(), Input{Text: "xyzzy qwerty"})
	if result.Kind != convdomain.IntentUnknown {
		t.Errorf("kind = %q, want unknown", result.Kind)
	}
}
