// Package transport defines request and response DTOs for the leads API.
package transport

import (
	"time"

	"expoconnect_backend/internal/leads/domain"
)

// ListLeadsRequest carries pagination parameters for the lead list.
type ListLeadsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// LeadResponse is the wire representation of a lead.
type LeadResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Company            string  `json:"company"`
	Phone              string  `json:"phone"`
	Email              string  `json:"email"`
	Designation        string  `json:"designation"`
	Address            string  `json:"address"`
	ConversationState  string  `json:"conversation_state"`
	Segment            string  `json:"segment,omitempty"`
	Priority           string  `json:"priority,omitempty"`
	AssignedEmployeeID *string `json:"assigned_employee_id,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// ListLeadsResponse is the paginated lead list payload.
type ListLeadsResponse struct {
	Leads    []LeadResponse `json:"leads"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// MessageResponse is the wire representation of one chat turn.
type MessageResponse struct {
	ID         string  `json:"id"`
	SenderKind string  `json:"sender_kind"`
	Body       string  `json:"body"`
	MediaRef   *string `json:"media_ref,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// ToLeadResponse converts a domain lead to its wire form.
func ToLeadResponse(l domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:                l.ID.String(),
		Name:              l.Name,
		Company:           l.Company,
		Phone:             l.Phone,
		Email:             l.Email,
		Designation:       l.Designation,
		Address:           l.Address,
		ConversationState: string(l.ConversationState),
		Segment:           l.Segment,
		Priority:          l.Priority,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         l.UpdatedAt.Format(time.RFC3339),
	}
	if l.AssignedEmployeeID != nil {
		id := l.AssignedEmployeeID.String()
		resp.AssignedEmployeeID = &id
	}
	return resp
}

// ToLeadResponses converts a slice of domain leads.
func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

// ToMessageResponses converts a transcript to its wire form.
func ToMessageResponses(messages []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageResponse{
			ID:         m.ID.String(),
			SenderKind: string(m.SenderKind),
			Body:       m.Body,
			MediaRef:   m.MediaRef,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
