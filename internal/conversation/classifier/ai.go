package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	convdomain "expoconnect_backend/internal/conversation/domain"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/logger"
)

const aiSystemPrompt = `You classify WhatsApp messages from exhibition visitors about their sales lead record.
Pick exactly one intent for the message. Use "correction" only when the visitor wants a stored field changed.
Use "confirmation_yes"/"confirmation_no" only when the message answers a confirmation request.
Use "unknown" when none of the intents fit.`

// AILayer is the last-resort classifier backed by a Gemini model with a
// constrained JSON response schema. It never returns an error to the
// caller; every failure degrades to an unconfident unknown so the
// conversation keeps moving.
type AILayer struct {
	client  *genai.Client
	model   string
	timeout config.AIConfig
	log     *logger.Logger
}

type aiVerdict struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// NewAILayer builds the AI layer. Returns nil when AI classification is
// disabled so the caller can wire a two-layer classifier.
func NewAILayer(ctx context.Context, cfg config.AIConfig, log *logger.Logger) (*AILayer, error) {
	if !cfg.IsAIEnabled() {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &AILayer{
		client:  client,
		model:   cfg.GetGeminiModel(),
		timeout: cfg,
		log:     log,
	}, nil
}

var _ Layer = (*AILayer)(nil)

func (l *AILayer) Name() convdomain.LayerName {
	return convdomain.LayerAI
}

func (l *AILayer) Classify(ctx context.Context, in Input) (convdomain.IntentResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout.GetAITimeout())
	defer cancel()

	prompt := fmt.Sprintf("Conversation state: %s\nSender: %s\nMessage: %s",
		in.State, in.SenderKind, in.Text)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(aiSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    intentSchema(),
	}

	res, err := l.client.Models.GenerateContent(ctx, l.model, contents, cfg)
	if err != nil {
		l.log.Warn("ai classification failed", "error", err)
		return convdomain.Unknown(convdomain.LayerAI), true
	}

	var verdict aiVerdict
	if err := json.Unmarshal([]byte(res.Text()), &verdict); err != nil {
		l.log.Warn("ai classification returned malformed response", "error", err)
		return convdomain.Unknown(convdomain.LayerAI), true
	}

	kind, ok := parseIntentKind(verdict.Intent)
	if !ok {
		l.log.Warn("ai classification returned unexpected intent", "intent", verdict.Intent)
		return convdomain.Unknown(convdomain.LayerAI), true
	}

	confidence := verdict.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = convdomain.MinConfidence
	}

	return convdomain.IntentResult{
		Kind:       kind,
		Confidence: confidence,
		Layer:      convdomain.LayerAI,
	}, true
}

func intentSchema() *genai.Schema {
	kinds := make([]string, 0, len(convdomain.AllIntentKinds))
	for _, k := range convdomain.AllIntentKinds {
		kinds = append(kinds, string(k))
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"intent": {
				Type: genai.TypeString,
				Enum: kinds,
			},
			"confidence": {
				Type: genai.TypeNumber,
			},
		},
		Required: []string{"intent"},
	}
}

func parseIntentKind(raw string) (convdomain.IntentKind, bool) {
	for _, k := range convdomain.AllIntentKinds {
		if string(k) == raw {
			return k, true
		}
	}
	return convdomain.IntentUnknown, false
}
