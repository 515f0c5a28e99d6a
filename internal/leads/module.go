// Package leads provides the leads bounded context module.
// It owns the lead and message records and the authenticated read API
// used by booth dashboards.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "expoconnect_backend/internal/http"
	"expoconnect_backend/internal/leads/handler"
	"expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/internal/leads/service"
	"expoconnect_backend/platform/logger"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.LeadsRepository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for other bounded contexts.
func (m *Module) Repository() repository.LeadsRepository {
	return m.repo
}

// RegisterRoutes mounts the authenticated lead read endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	leadsGroup.GET("", m.handler.List)
	leadsGroup.GET("/:id", m.handler.Get)
	leadsGroup.GET("/:id/messages", m.handler.Messages)
	leadsGroup.GET("/:id/qr", m.handler.ContactQR)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
