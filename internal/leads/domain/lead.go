// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a captured visitor/prospect record tracked through the
// conversation and follow-up lifecycle. Leads are never hard-deleted;
// IsActive false is the soft-delete.
type Lead struct {
	ID                 uuid.UUID
	Name               string
	Company            string
	Phone              string
	Email              string
	Designation        string
	Address            string
	ConversationState  ConversationState
	Segment            string
	Priority           string
	AssignedEmployeeID *uuid.UUID
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SenderKind identifies who authored a chat message.
type SenderKind string

const (
	SenderEmployee SenderKind = "employee"
	SenderVisitor  SenderKind = "visitor"
	SenderSystem   SenderKind = "system"
)

// MessageKind identifies the payload type of an inbound message.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageAudio MessageKind = "audio"
)

// Message is one chat turn, append-only and ordered by CreatedAt.
type Message struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	SenderKind SenderKind
	Body       string
	MediaRef   *string
	DeliveryID *string
	CreatedAt  time.Time
}

// Employee is a booth staff member identified by phone number.
type Employee struct {
	ID       uuid.UUID
	Name     string
	Phone    string
	IsActive bool
}
