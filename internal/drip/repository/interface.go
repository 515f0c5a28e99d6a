package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"expoconnect_backend/internal/drip/domain"
)

// DripRepository is the persistence port for campaign definitions,
// assignments, and the scheduled message timeline.
type DripRepository interface {
	// Definitions.
	GetDefinitionByID(ctx context.Context, id uuid.UUID) (domain.Definition, error)
	GetDefinitionByName(ctx context.Context, name string) (domain.Definition, error)
	ListDefinitions(ctx context.Context) ([]domain.Definition, error)
	UpsertDefinition(ctx context.Context, name string, steps []domain.Step) (domain.Definition, error)

	// Enrollment. Enroll creates the assignment and materializes every
	// scheduled message in one transaction; it fails with a Conflict when
	// the lead already has a non-terminal assignment.
	Enroll(ctx context.Context, leadID uuid.UUID, def domain.Definition, startedAt time.Time) (domain.Assignment, error)

	GetAssignment(ctx context.Context, id uuid.UUID) (domain.Assignment, error)
	GetLiveAssignmentByLead(ctx context.Context, leadID uuid.UUID) (domain.Assignment, error)

	// Lifecycle.
	Pause(ctx context.Context, assignmentID uuid.UUID, at time.Time) error
	Resume(ctx context.Context, assignmentID uuid.UUID) error
	// Stop marks the assignment stopped and cancels every remaining
	// non-terminal row in the same call.
	Stop(ctx context.Context, assignmentID uuid.UUID, at time.Time) error

	// Dispatch. ClaimDue atomically flips due pending rows of active
	// assignments to sending and returns them joined with lead fields.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.DueMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID, deliveryID string, at time.Time) error
	// ReturnForRetry moves a sending row back to pending with the attempt
	// recorded and the next try pushed out by backoff.
	ReturnForRetry(ctx context.Context, id uuid.UUID, lastError string, nextAttemptAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error

	ListScheduledByLead(ctx context.Context, leadID uuid.UUID) ([]domain.ScheduledMessage, error)

	// CompleteFinished flips active assignments with no non-terminal rows
	// left to completed and returns how many were closed out.
	CompleteFinished(ctx context.Context) (int, error)
}
