package webhook

import (
	apphttp "expoconnect_backend/internal/http"
	"expoconnect_backend/internal/storage"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/logger"
	"expoconnect_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	cfg     config.WebhookConfig
}

// NewModule creates the webhook module. media may be nil.
func NewModule(processor Processor, media storage.MediaStore, cfg config.WebhookConfig, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(processor, media, val, log),
		cfg:     cfg,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the gateway endpoint. API key auth plus the
// webhook rate limiter, no JWT.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook")
	group.Use(APIKeyAuth(m.cfg))
	if ctx.WebhookRateLimiter != nil {
		group.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	group.POST("/whatsapp", m.handler.HandleInbound)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
