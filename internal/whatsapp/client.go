// Package whatsapp is the outbound gateway client. All replies, drip
// messages, and staff notifications leave through here.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"expoconnect_backend/platform/apperr"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/logger"
	"expoconnect_backend/platform/phone"
)

// Sender is the outbound message port. SendMessage returns the gateway
// delivery ID for the accepted message.
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) (string, error)
}

type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	http     *http.Client
	log      *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type gowaResponse struct {
	Results struct {
		MessageID string `json:"message_id"`
	} `json:"results"`
	MessageID string `json:"message_id"`
}

// NewClient builds a gateway client. Returns nil when no gateway URL is
// configured; the nil client rejects sends instead of silently dropping them.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:   cfg.GetWhatsAppKey(),
		deviceID: cfg.GetWhatsAppDeviceID(),
		http:     &http.Client{Timeout: cfg.GetWhatsAppSendTimeout()},
		log:      log,
	}
}

var _ Sender = (*Client)(nil)

// SendMessage posts one text message to the gateway and returns the
// gateway's delivery ID.
func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) (string, error) {
	if c == nil {
		return "", apperr.Unavailable("whatsapp gateway not configured")
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")

	payload := gowaRequest{
		Phone:   normalized,
		Message: message,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/send/message", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed gowaResponse
	_ = json.Unmarshal(data, &parsed)
	deliveryID := parsed.Results.MessageID
	if deliveryID == "" {
		deliveryID = parsed.MessageID
	}

	c.log.Info("whatsapp sent via gowa", "phone", normalized, "delivery_id", deliveryID)
	return deliveryID, nil
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}
