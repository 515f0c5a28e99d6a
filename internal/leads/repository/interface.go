package repository

import (
	"context"

	"expoconnect_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// CreateLeadParams are the fields known at first contact. Everything else
// arrives later through extraction or corrections.
type CreateLeadParams struct {
	Name              string
	Company           string
	Phone             string
	Email             string
	Designation       string
	ConversationState domain.ConversationState
}

// CreateMessageParams describe one appended chat turn.
type CreateMessageParams struct {
	LeadID     uuid.UUID
	SenderKind domain.SenderKind
	Body       string
	MediaRef   *string
	DeliveryID *string
}

// ListParams control lead listing for the read API.
type ListParams struct {
	Limit  int
	Offset int
}

// LeadsRepository is the persistence port for leads and their messages.
type LeadsRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetByPhone(ctx context.Context, phone string) (domain.Lead, error)
	GetByPhoneSuffix(ctx context.Context, suffix string) (domain.Lead, error)
	Create(ctx context.Context, params CreateLeadParams) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)

	// GetLatestByEmployee returns the employee's most recently updated
	// active lead, used to attach staff messages to a conversation.
	GetLatestByEmployee(ctx context.Context, employeeID uuid.UUID) (domain.Lead, error)

	// UpdateConversationStateCAS writes the new state only when the stored
	// state still equals expected. Returns apperr KindConflict otherwise.
	UpdateConversationStateCAS(ctx context.Context, id uuid.UUID, expected, next domain.ConversationState) error

	UpdateField(ctx context.Context, id uuid.UUID, field domain.CorrectionField, value string) error

	// UpdateSegment writes the derived segment and outreach priority.
	UpdateSegment(ctx context.Context, id uuid.UUID, segment, priority string) error

	CreateMessage(ctx context.Context, params CreateMessageParams) (domain.Message, error)
	ListMessages(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error)
}
