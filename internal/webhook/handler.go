// Package webhook receives inbound WhatsApp traffic from the gateway and
// feeds it to the conversation engine. The endpoint is protected by a
// shared API key; callers are gateway processes, never browsers.
package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"expoconnect_backend/internal/conversation"
	leadsdomain "expoconnect_backend/internal/leads/domain"
	"expoconnect_backend/internal/storage"
	"expoconnect_backend/platform/httpkit"
	"expoconnect_backend/platform/logger"
	"expoconnect_backend/platform/phone"
	"expoconnect_backend/platform/sanitize"
	"expoconnect_backend/platform/validator"
)

// processTimeout bounds one inbound message end to end, including the AI
// classification layer and outbound gateway calls.
const processTimeout = 30 * time.Second

// Processor handles one normalized inbound event. Implemented by the
// conversation service.
type Processor interface {
	HandleInbound(ctx context.Context, event conversation.InboundEvent) error
}

// inboundPayload is the gateway's webhook body. Media arrives either as a
// reference the gateway already stored, or inline as base64.
type inboundPayload struct {
	FromPhone  string     `json:"from_phone" validate:"required"`
	Kind       string     `json:"kind" validate:"required,oneof=text image audio"`
	Text       string     `json:"text"`
	MediaRef   *string    `json:"media_ref"`
	MediaData  string     `json:"media_data"`
	MediaMime  string     `json:"media_mime"`
	FileName   string     `json:"file_name"`
	ReceivedAt *time.Time `json:"received_at"`
}

// Handler exposes the inbound webhook endpoint.
type Handler struct {
	processor Processor
	media     storage.MediaStore
	val       *validator.Validator
	log       *logger.Logger
}

// NewHandler creates a webhook handler. media may be nil when object
// storage is not configured; inline media is then rejected.
func NewHandler(processor Processor, media storage.MediaStore, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{processor: processor, media: media, val: val, log: log}
}

// HandleInbound accepts one gateway message and processes it off the
// request goroutine. The gateway only needs to know the message was
// accepted; conversation failures are logged, not returned.
func (h *Handler) HandleInbound(c *gin.Context) {
	var payload inboundPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.val.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if payload.Kind == string(leadsdomain.MessageText) && payload.Text == "" {
		httpkit.Error(c, http.StatusBadRequest, "text messages require a text body", nil)
		return
	}

	// Message bodies end up in dashboard views; strip markup on the way in.
	event := conversation.InboundEvent{
		FromPhone:  payload.FromPhone,
		Kind:       leadsdomain.MessageKind(payload.Kind),
		Text:       sanitize.Text(payload.Text),
		MediaRef:   payload.MediaRef,
		ReceivedAt: time.Now(),
	}
	if payload.ReceivedAt != nil {
		event.ReceivedAt = *payload.ReceivedAt
	}

	if payload.MediaData != "" {
		fileKey, err := h.storeInlineMedia(c.Request.Context(), payload)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "could not store media", err.Error())
			return
		}
		event.MediaRef = &fileKey
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		if err := h.processor.HandleInbound(ctx, event); err != nil {
			h.log.Error("inbound processing failed", "from", payload.FromPhone, "error", err)
		}
	}()

	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "accepted"})
}

// storeInlineMedia decodes base64 media and archives it before the lead is
// resolved; the object folder is keyed by the sender's digits.
func (h *Handler) storeInlineMedia(ctx context.Context, payload inboundPayload) (string, error) {
	if h.media == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	data, err := base64.StdEncoding.DecodeString(payload.MediaData)
	if err != nil {
		return "", fmt.Errorf("decode media data: %w", err)
	}

	fileName := payload.FileName
	if fileName == "" {
		fileName = payload.Kind
	}

	folder := phone.SanitizeDigits(payload.FromPhone)
	return h.media.StoreLeadMedia(ctx, folder, fileName, payload.MediaMime, bytes.NewReader(data), int64(len(data)))
}
