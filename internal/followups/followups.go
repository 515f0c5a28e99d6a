// Package followups stores demo and meeting appointments created by the
// conversation flow and enqueues staff reminders for them.
package followups

import (
	"time"

	"github.com/google/uuid"

	convdomain "expoconnect_backend/internal/conversation/domain"
)

// Status is the lifecycle of a follow-up record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusNotified  Status = "notified"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

// FollowUp is one scheduled demo or meeting for a lead.
type FollowUp struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	Kind         convdomain.FollowUpKind
	ScheduledFor time.Time
	Status       Status
	Notes        string
	CreatedAt    time.Time
}
