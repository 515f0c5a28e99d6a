// Package drip provides the drip campaign bounded context module: campaign
// definitions, per-lead enrollments, and the admin API over both. The
// dispatch loop itself runs in the scheduler binary, not here.
package drip

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"expoconnect_backend/internal/drip/handler"
	"expoconnect_backend/internal/drip/repository"
	"expoconnect_backend/internal/drip/service"
	"expoconnect_backend/internal/events"
	apphttp "expoconnect_backend/internal/http"
	"expoconnect_backend/platform/logger"
	"expoconnect_backend/platform/validator"
)

// Module is the drip bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.DripRepository
}

// NewModule creates and initializes the drip module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "drip"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for the dispatcher binary.
func (m *Module) Repository() repository.DripRepository {
	return m.repo
}

// RegisterRoutes mounts the admin-only drip endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/drips", m.handler.ListDefinitions)

	leadGroup := ctx.Admin.Group("/leads/:id/drip")
	leadGroup.GET("", m.handler.Assignment)
	leadGroup.POST("", m.handler.Enroll)
	leadGroup.GET("/schedule", m.handler.Schedule)

	assignmentGroup := ctx.Admin.Group("/drip-assignments/:id")
	assignmentGroup.POST("/pause", m.handler.Pause)
	assignmentGroup.POST("/resume", m.handler.Resume)
	assignmentGroup.POST("/stop", m.handler.Stop)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
