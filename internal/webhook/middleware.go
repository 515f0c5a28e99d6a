package webhook

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"expoconnect_backend/platform/config"
)

// APIKeyAuth validates the X-Webhook-API-Key header against the configured
// shared secret. The gateway is the only caller; there is no per-client
// key management.
func APIKeyAuth(cfg config.WebhookConfig) gin.HandlerFunc {
	expected := []byte(cfg.GetWebhookAPIKey())

	return func(c *gin.Context) {
		provided := []byte(c.GetHeader("X-Webhook-API-Key"))
		if len(provided) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		if subtle.ConstantTimeCompare(provided, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
