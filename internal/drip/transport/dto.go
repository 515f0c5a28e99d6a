// Package transport defines request and response DTOs for the drip admin API.
package transport

import (
	"time"

	"expoconnect_backend/internal/drip/domain"
)

// EnrollRequest names the campaign to enroll a lead into.
type EnrollRequest struct {
	DripName string `json:"drip_name" validate:"required"`
}

// StepResponse is the wire representation of one campaign step.
type StepResponse struct {
	Template  string `json:"template"`
	DayOffset int    `json:"day_offset"`
	TimeOfDay string `json:"time_of_day"`
	SortOrder int    `json:"sort_order"`
}

// DefinitionResponse is the wire representation of a campaign.
type DefinitionResponse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Steps []StepResponse `json:"steps"`
}

// AssignmentResponse is the wire representation of an enrollment.
type AssignmentResponse struct {
	ID        string  `json:"id"`
	LeadID    string  `json:"lead_id"`
	DripID    string  `json:"drip_id"`
	Status    string  `json:"status"`
	StartedAt string  `json:"started_at"`
	PausedAt  *string `json:"paused_at,omitempty"`
	StoppedAt *string `json:"stopped_at,omitempty"`
}

// ScheduledMessageResponse is the wire representation of one timeline row.
type ScheduledMessageResponse struct {
	ID          string  `json:"id"`
	StepOrder   int     `json:"step_order"`
	ScheduledAt string  `json:"scheduled_at"`
	Status      string  `json:"status"`
	Attempts    int     `json:"attempts"`
	LastError   *string `json:"last_error,omitempty"`
	SentAt      *string `json:"sent_at,omitempty"`
}

// ToDefinitionResponses converts campaigns to their wire form.
func ToDefinitionResponses(defs []domain.Definition) []DefinitionResponse {
	out := make([]DefinitionResponse, 0, len(defs))
	for _, def := range defs {
		steps := make([]StepResponse, 0, len(def.Steps))
		for _, s := range def.Steps {
			steps = append(steps, StepResponse{
				Template:  s.Template,
				DayOffset: s.DayOffset,
				TimeOfDay: s.TimeOfDay,
				SortOrder: s.SortOrder,
			})
		}
		out = append(out, DefinitionResponse{
			ID:    def.ID.String(),
			Name:  def.Name,
			Steps: steps,
		})
	}
	return out
}

// ToAssignmentResponse converts an enrollment to its wire form.
func ToAssignmentResponse(a domain.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:        a.ID.String(),
		LeadID:    a.LeadID.String(),
		DripID:    a.DripID.String(),
		Status:    string(a.Status),
		StartedAt: a.StartedAt.Format(time.RFC3339),
	}
	resp.PausedAt = formatOptional(a.PausedAt)
	resp.StoppedAt = formatOptional(a.StoppedAt)
	return resp
}

// ToScheduledMessageResponses converts timeline rows to their wire form.
func ToScheduledMessageResponses(messages []domain.ScheduledMessage) []ScheduledMessageResponse {
	out := make([]ScheduledMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, ScheduledMessageResponse{
			ID:          m.ID.String(),
			StepOrder:   m.StepSortOrder,
			ScheduledAt: m.ScheduledAt.Format(time.RFC3339),
			Status:      string(m.Status),
			Attempts:    m.Attempts,
			LastError:   m.LastError,
			SentAt:      formatOptional(m.SentAt),
		})
	}
	return out
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
