package followups

import (
	"context"
	"time"

	"github.com/google/uuid"

	convdomain "expoconnect_backend/internal/conversation/domain"
	"expoconnect_backend/platform/logger"
)

// ReminderEnqueuer schedules a staff reminder for a follow-up. Implemented
// by the asynq scheduler client; nil disables reminders.
type ReminderEnqueuer interface {
	EnqueueFollowUpReminder(ctx context.Context, followUpID uuid.UUID, at time.Time) error
}

// Service creates follow-up records and their reminders.
type Service struct {
	repo      Repository
	reminders ReminderEnqueuer
	log       *logger.Logger
}

// NewService creates a follow-ups service.
func NewService(repo Repository, reminders ReminderEnqueuer, log *logger.Logger) *Service {
	return &Service{repo: repo, reminders: reminders, log: log}
}

// Create stores the follow-up and schedules a reminder an hour before the
// slot. A reminder enqueue failure does not fail the creation; the record
// itself is the source of truth.
func (s *Service) Create(ctx context.Context, leadID uuid.UUID, kind convdomain.FollowUpKind, scheduledFor time.Time, notes string) (FollowUp, error) {
	followUp, err := s.repo.Create(ctx, leadID, kind, scheduledFor, notes)
	if err != nil {
		return FollowUp{}, err
	}

	if s.reminders != nil {
		remindAt := scheduledFor.Add(-time.Hour)
		if err := s.reminders.EnqueueFollowUpReminder(ctx, followUp.ID, remindAt); err != nil {
			s.log.Warn("follow-up reminder enqueue failed", "followup_id", followUp.ID, "error", err)
		}
	}

	return followUp, nil
}

// ListByLead returns a lead's follow-ups.
func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) ([]FollowUp, error) {
	return s.repo.ListByLead(ctx, leadID)
}
