package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"expoconnect_backend/internal/conversation"
	apphttp "expoconnect_backend/internal/http"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	"expoconnect_backend/platform/logger"
	"expoconnect_backend/platform/validator"
)

const testAPIKey = "gateway-secret"

type webhookConfig struct{}

func (webhookConfig) GetWebhookAPIKey() string { return testAPIKey }

type capturingProcessor struct {
	events chan conversation.InboundEvent
}

func (p *capturingProcessor) HandleInbound(ctx context.Context, event conversation.InboundEvent) error {
	p.events <- event
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *capturingProcessor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	processor := &capturingProcessor{events: make(chan conversation.InboundEvent, 1)}
	module := NewModule(processor, nil, webhookConfig{}, validator.New(), logger.New("test"))

	engine := gin.New()
	module.RegisterRoutes(&apphttp.RouterContext{
		Engine: engine,
		V1:     engine.Group("/api/v1"),
	})

	return engine, processor
}

func postWebhook(engine *gin.Engine, apiKey string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Webhook-API-Key", apiKey)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsMissingAPIKey(t *testing.T) {
	engine, _ := newTestRouter(t)

	rec := postWebhook(engine, "", map[string]string{"from_phone": "+919876543210", "kind": "text", "text": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWebhookRejectsWrongAPIKey(t *testing.T) {
	engine, _ := newTestRouter(t)

	rec := postWebhook(engine, "not-the-key", map[string]string{"from_phone": "+919876543210", "kind": "text", "text": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWebhookAcceptsTextMessage(t *testing.T) {
	engine, processor := newTestRouter(t)

	rec := postWebhook(engine, testAPIKey, map[string]string{
		"from_phone": "+919876543210",
		"kind":       "text",
		"text":       "yes",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	select {
	case event := <-processor.events:
		if event.FromPhone != "+919876543210" {
			t.Errorf("from = %q, want the sender's phone", event.FromPhone)
		}
		if event.Kind != leadsdomain.MessageText {
			t.Errorf("kind = %q, want text", event.Kind)
		}
		if event.Text != "yes" {
			t.Errorf("text = %q, want %q", event.Text, "yes")
		}
	case <-time.After(time.Second):
		t.Fatal("processor never received the event")
	}
}

func TestWebhookStripsMarkupFromText(t *testing.T) {
	engine, processor := newTestRouter(t)

	rec := postWebhook(engine, testAPIKey, map[string]string{
		"from_phone": "+919876543210",
		"kind":       "text",
		"text":       "<script>alert(1)</script>hello",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	select {
	case event := <-processor.events:
		if event.Text != "alert(1)hello" {
			t.Errorf("text = %q, markup should be stripped", event.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("processor never received the event")
	}
}

func TestWebhookRejectsTextMessageWithoutBody(t *testing.T) {
	engine, _ := newTestRouter(t)

	rec := postWebhook(engine, testAPIKey, map[string]string{
		"from_phone": "+919876543210",
		"kind":       "text",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestWebhookRejectsUnknownKind(t *testing.T) {
	engine, _ := newTestRouter(t)

	rec := postWebhook(engine, testAPIKey, map[string]string{
		"from_phone": "+919876543210",
		"kind":       "video",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestWebhookRejectsInlineMediaWithoutStorage(t *testing.T) {
	engine, _ := newTestRouter(t)

	rec := postWebhook(engine, testAPIKey, map[string]string{
		"from_phone": "+919876543210",
		"kind":       "image",
		"media_data": "aGVsbG8=",
		"media_mime": "image/jpeg",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
