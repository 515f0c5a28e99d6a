// Package service implements drip campaign enrollment and lifecycle
// operations shared by the conversation executor and the admin API.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"expoconnect_backend/internal/drip/domain"
	"expoconnect_backend/internal/drip/repository"
	"expoconnect_backend/internal/events"
	"expoconnect_backend/platform/apperr"
	"expoconnect_backend/platform/logger"
)

// Service coordinates drip enrollment and assignment lifecycle.
type Service struct {
	repo repository.DripRepository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new drip service.
func New(repo repository.DripRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// EnrollByName enrolls a lead in the named campaign. Fails with Conflict
// when the lead already has a live assignment.
func (s *Service) EnrollByName(ctx context.Context, leadID uuid.UUID, dripName string) (domain.Assignment, error) {
	def, err := s.repo.GetDefinitionByName(ctx, dripName)
	if err != nil {
		return domain.Assignment{}, err
	}
	if len(def.Steps) == 0 {
		return domain.Assignment{}, apperr.Validation("drip definition has no steps")
	}

	assignment, err := s.repo.Enroll(ctx, leadID, def, time.Now())
	if err != nil {
		return domain.Assignment{}, err
	}

	s.bus.Publish(ctx, events.DripStarted{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       leadID,
		AssignmentID: assignment.ID,
		DripName:     dripName,
	})

	return assignment, nil
}

// StopForLead cancels the lead's live assignment if one exists. A lead
// without a live assignment is not an error; stop is idempotent from the
// conversation's point of view.
func (s *Service) StopForLead(ctx context.Context, leadID uuid.UUID) error {
	assignment, err := s.repo.GetLiveAssignmentByLead(ctx, leadID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}

	if err := s.repo.Stop(ctx, assignment.ID, time.Now()); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.DripStopped{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       leadID,
		AssignmentID: assignment.ID,
	})

	return nil
}

// Pause suspends dispatch for an assignment.
func (s *Service) Pause(ctx context.Context, assignmentID uuid.UUID) error {
	return s.repo.Pause(ctx, assignmentID, time.Now())
}

// Resume reactivates a paused assignment.
func (s *Service) Resume(ctx context.Context, assignmentID uuid.UUID) error {
	return s.repo.Resume(ctx, assignmentID)
}

// Stop cancels an assignment and all of its remaining sends.
func (s *Service) Stop(ctx context.Context, assignmentID uuid.UUID) error {
	assignment, err := s.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}

	if err := s.repo.Stop(ctx, assignmentID, time.Now()); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.DripStopped{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       assignment.LeadID,
		AssignmentID: assignmentID,
	})

	return nil
}

// ListDefinitions returns every campaign with its steps.
func (s *Service) ListDefinitions(ctx context.Context) ([]domain.Definition, error) {
	return s.repo.ListDefinitions(ctx)
}

// ScheduledForLead returns the lead's materialized send timeline.
func (s *Service) ScheduledForLead(ctx context.Context, leadID uuid.UUID) ([]domain.ScheduledMessage, error) {
	return s.repo.ListScheduledByLead(ctx, leadID)
}

// AssignmentForLead returns the lead's live assignment.
func (s *Service) AssignmentForLead(ctx context.Context, leadID uuid.UUID) (domain.Assignment, error) {
	return s.repo.GetLiveAssignmentByLead(ctx, leadID)
}
