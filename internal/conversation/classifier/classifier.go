// Package classifier turns raw inbound text into a typed intent. Three
// layers run strictly in order, cheapest first: deterministic patterns,
// keyword scoring, and an AI fallback. The ordering is load-bearing; most
// traffic must resolve before the AI layer is ever reached.
package classifier

import (
	"context"

	convdomain "expoconnect_backend/internal/conversation/domain"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	"expoconnect_backend/platform/logger"
)

// Input is everything a layer may consider when classifying a message.
type Input struct {
	Text       string
	State      leadsdomain.ConversationState
	SenderKind leadsdomain.SenderKind
}

// Layer is one classification strategy. Classify returns ok=false when the
// layer has no opinion and the next layer should be consulted.
type Layer interface {
	Name() convdomain.LayerName
	Classify(ctx context.Context, in Input) (convdomain.IntentResult, bool)
}

// Classifier runs the ordered layer list with strict short-circuiting.
type Classifier struct {
	layers []Layer
	log    *logger.Logger
}

// New creates a classifier over the given ordered layers.
func New(log *logger.Logger, layers ...Layer) *Classifier {
	return &Classifier{layers: layers, log: log}
}

// Default wires the production layer order: pattern, keyword, AI. The AI
// layer may be nil when no API key is configured.
func Default(log *logger.Logger, ai Layer) *Classifier {
	layers := []Layer{NewPatternLayer(), NewKeywordLayer()}
	if ai != nil {
		layers = append(layers, ai)
	}
	return New(log, layers...)
}

// Classify runs the layers in order and returns the first confident result.
// A later layer is never invoked once an earlier one is confident. When no
// layer is confident the result is unknown with confidence 0.
func (c *Classifier) Classify(ctx context.Context, in Input) convdomain.IntentResult {
	for _, layer := range c.layers {
		result, ok := layer.Classify(ctx, in)
		if !ok {
			continue
		}
		if result.Kind != convdomain.IntentUnknown && result.Confidence >= convdomain.MinConfidence {
			return result
		}
	}

	return convdomain.Unknown(convdomain.LayerAI)
}
