// Package domain provides core types for drip campaigns: reusable
// definitions, per-lead assignments, and the materialized send timeline.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Definition is a named, ordered campaign of message templates scheduled
// at day offsets relative to enrollment. Definitions are immutable for
// dispatch purposes; edits apply only to future assignments because each
// assignment materializes its own ScheduledMessage rows at enroll time.
type Definition struct {
	ID        uuid.UUID
	Name      string
	Steps     []Step
	CreatedAt time.Time
}

// Step is one message in a campaign. DayOffset 0 means "right after
// enrollment"; otherwise the send lands on enrollment date + DayOffset
// days at TimeOfDay.
type Step struct {
	ID        uuid.UUID
	DripID    uuid.UUID
	Template  string
	DayOffset int
	TimeOfDay string // "HH:MM", 24h
	SortOrder int
}

// AssignmentStatus is the lifecycle of one lead's enrollment.
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentPaused    AssignmentStatus = "paused"
	AssignmentStopped   AssignmentStatus = "stopped"
	AssignmentCompleted AssignmentStatus = "completed"
)

// IsTerminal reports whether the assignment can never dispatch again.
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStopped || s == AssignmentCompleted
}

// Assignment enrolls one lead in one campaign. At most one non-terminal
// assignment may exist per lead, enforced by a partial unique index.
type Assignment struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	DripID    uuid.UUID
	Status    AssignmentStatus
	StartedAt time.Time
	PausedAt  *time.Time
	StoppedAt *time.Time
}

// ScheduledStatus is the lifecycle of one materialized send.
// pending → sending is the dispatcher's in-flight claim; sending rows
// return to pending on transient failure. sent, cancelled, and
// failed (after the attempt cap) are terminal. skipped marks rows the
// operator chose to drop without cancelling the whole assignment.
type ScheduledStatus string

const (
	ScheduledPending   ScheduledStatus = "pending"
	ScheduledSending   ScheduledStatus = "sending"
	ScheduledSent      ScheduledStatus = "sent"
	ScheduledSkipped   ScheduledStatus = "skipped"
	ScheduledFailed    ScheduledStatus = "failed"
	ScheduledCancelled ScheduledStatus = "cancelled"
)

// ScheduledMessage is one concrete, time-stamped send for one lead.
type ScheduledMessage struct {
	ID            uuid.UUID
	AssignmentID  uuid.UUID
	LeadID        uuid.UUID
	StepSortOrder int
	BodyTemplate  string
	ScheduledAt   time.Time
	Status        ScheduledStatus
	Attempts      int
	LastError     *string
	DeliveryID    *string
	SentAt        *time.Time
}

// DueMessage is a claimed row joined with the lead fields needed to
// render and address the send.
type DueMessage struct {
	ScheduledMessage
	LeadPhone       string
	LeadName        string
	LeadCompany     string
	LeadDesignation string
}

// ScheduleStepAt computes the wall-clock send time for a step enrolled at
// startedAt. Day-0 steps go out a minute after enrollment so the visitor
// sees the first touch while still at the booth.
func ScheduleStepAt(startedAt time.Time, step Step) time.Time {
	if step.DayOffset == 0 {
		return startedAt.Add(time.Minute)
	}

	day := startedAt.AddDate(0, 0, step.DayOffset)
	hour, minute := parseTimeOfDay(step.TimeOfDay)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, startedAt.Location())
}

// parseTimeOfDay reads "HH:MM"; malformed values fall back to 10:00 so a
// bad seed file delays a send instead of dropping it.
func parseTimeOfDay(s string) (int, int) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 10, 0
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 10, 0
	}
	return hour, minute
}
