package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"expoconnect_backend/internal/drip/service"
	"expoconnect_backend/internal/drip/transport"
	"expoconnect_backend/platform/httpkit"
	"expoconnect_backend/platform/validator"
)

// Handler handles HTTP requests for drip campaign administration.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest      = "invalid request"
	msgValidationFailed    = "validation failed"
	msgInvalidLeadID       = "invalid lead ID"
	msgInvalidAssignmentID = "invalid assignment ID"
)

// New creates a new drip handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListDefinitions retrieves all campaign definitions.
// GET /api/v1/admin/drips
func (h *Handler) ListDefinitions(c *gin.Context) {
	defs, err := h.svc.ListDefinitions(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"drips": transport.ToDefinitionResponses(defs)})
}

// Enroll enrolls a lead in a named campaign.
// POST /api/v1/admin/leads/:id/drip
func (h *Handler) Enroll(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	var req transport.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	assignment, err := h.svc.EnrollByName(c.Request.Context(), leadID, req.DripName)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToAssignmentResponse(assignment))
}

// Schedule retrieves a lead's materialized send timeline.
// GET /api/v1/admin/leads/:id/drip/schedule
func (h *Handler) Schedule(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	messages, err := h.svc.ScheduledForLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"scheduled_messages": transport.ToScheduledMessageResponses(messages)})
}

// Assignment retrieves a lead's live assignment.
// GET /api/v1/admin/leads/:id/drip
func (h *Handler) Assignment(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	assignment, err := h.svc.AssignmentForLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

// Pause suspends dispatch for an assignment.
// POST /api/v1/admin/drip-assignments/:id/pause
func (h *Handler) Pause(c *gin.Context) {
	h.lifecycle(c, h.svc.Pause)
}

// Resume reactivates a paused assignment.
// POST /api/v1/admin/drip-assignments/:id/resume
func (h *Handler) Resume(c *gin.Context) {
	h.lifecycle(c, h.svc.Resume)
}

// Stop cancels an assignment and its remaining sends. Irreversible.
// POST /api/v1/admin/drip-assignments/:id/stop
func (h *Handler) Stop(c *gin.Context) {
	h.lifecycle(c, h.svc.Stop)
}

func (h *Handler) lifecycle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) error) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAssignmentID, nil)
		return
	}

	if httpkit.HandleError(c, op(c.Request.Context(), assignmentID)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}
