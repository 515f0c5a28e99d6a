package domain

import "time"

// Command is one side effect requested by a state transition. The state
// machine only emits these as data; the conversation service executes them.
type Command interface {
	isCommand()
}

// Reply sends a text message back to the visitor.
type Reply struct {
	Text string
}

// NotifyEmployee sends a text to the lead's assigned employee, or to the
// configured admin phone when no employee is assigned.
type NotifyEmployee struct {
	Text string
}

// StartDrip enrolls the lead in the named drip campaign.
type StartDrip struct {
	DripName string
}

// StopDrip cancels the lead's live drip assignment, if any.
type StopDrip struct{}

// ApplyCorrection rewrites one lead field per the directive.
type ApplyCorrection struct {
	Directive CorrectionDirective
}

// FollowUpKind distinguishes the two scheduled follow-up flavors.
type FollowUpKind string

const (
	FollowUpDemo    FollowUpKind = "demo"
	FollowUpMeeting FollowUpKind = "meeting"
)

// CreateFollowUp records a follow-up appointment for the lead.
type CreateFollowUp struct {
	Kind FollowUpKind
	At   time.Time
}

// LogInternal records an operator-facing note without any outbound send.
type LogInternal struct {
	Note string
}

func (Reply) isCommand()           {}
func (NotifyEmployee) isCommand()  {}
func (StartDrip) isCommand()       {}
func (StopDrip) isCommand()        {}
func (ApplyCorrection) isCommand() {}
func (CreateFollowUp) isCommand()  {}
func (LogInternal) isCommand()     {}
