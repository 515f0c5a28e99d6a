// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"expoconnect_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// MessageReceived is published for every stored inbound message.
type MessageReceived struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	SenderKind string    `json:"senderKind"`
	Kind       string    `json:"kind"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func (e MessageReceived) EventName() string { return "conversation.message.received" }

// StateChanged is published after a successful conversation transition.
type StateChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	FromState string    `json:"fromState"`
	ToState   string    `json:"toState"`
	Intent    string    `json:"intent"`
}

func (e StateChanged) EventName() string { return "conversation.state.changed" }

// =============================================================================
// Drip Domain Events
// =============================================================================

// DripStarted is published when a lead is enrolled in a campaign.
type DripStarted struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	AssignmentID uuid.UUID `json:"assignmentId"`
	DripName     string    `json:"dripName"`
}

func (e DripStarted) EventName() string { return "drip.assignment.started" }

// DripStopped is published when an assignment is explicitly cancelled.
type DripStopped struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	AssignmentID uuid.UUID `json:"assignmentId"`
}

func (e DripStopped) EventName() string { return "drip.assignment.stopped" }

// DeliveryPermanentlyFailed is published when a scheduled message exhausts
// its delivery attempts. Operator alerting subscribes to this.
type DeliveryPermanentlyFailed struct {
	BaseEvent
	LeadID             uuid.UUID `json:"leadId"`
	ScheduledMessageID uuid.UUID `json:"scheduledMessageId"`
	LeadPhone          string    `json:"leadPhone"`
	Attempts           int       `json:"attempts"`
	LastError          string    `json:"lastError"`
}

func (e DeliveryPermanentlyFailed) EventName() string { return "drip.delivery.permanently_failed" }
