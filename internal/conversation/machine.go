// Package conversation owns the per-lead dialogue lifecycle: the pure
// transition table and the service that executes its commands.
package conversation

import (
	"fmt"
	"time"

	convdomain "expoconnect_backend/internal/conversation/domain"
	leadsdomain "expoconnect_backend/internal/leads/domain"
)

// TransitionInput is everything the machine may consider for one inbound
// message. The machine never touches storage; the lead snapshot fields are
// read-only context for composing replies.
type TransitionInput struct {
	State      leadsdomain.ConversationState
	Intent     convdomain.IntentResult
	Directive  *convdomain.CorrectionDirective
	SenderKind leadsdomain.SenderKind
	Text       string
	LeadName   string
	Company    string
	Now        time.Time
}

// TransitionResult is the machine's verdict: the state to write and the
// side-effect commands for the executor to apply, in order.
type TransitionResult struct {
	NewState leadsdomain.ConversationState
	Commands []convdomain.Command
}

// Machine is the conversation transition table. It is a pure value; the
// only configuration is which drip campaign confirmation starts.
type Machine struct {
	defaultDripName string
}

// NewMachine creates a machine that enrolls confirmed leads into the named
// drip campaign.
func NewMachine(defaultDripName string) Machine {
	return Machine{defaultDripName: defaultDripName}
}

const (
	replyThankYou = "Thank you for confirming! We'll keep you posted with relevant updates."
	replyCorrectionHowTo = "No problem. Please send the correction as \"Field: Value\", for example \"Email: name@company.com\". " +
		"You can update name, company, phone, email, designation or address."
	replyInvalidCorrection = "Sorry, I couldn't read that correction. Please use the format \"Field: Value\", " +
		"for example \"Designation: Sales Head\"."
	replyIssueAck = "Sorry to hear that! Our team has been informed and will reach out to you shortly."
	replyClarify  = "Sorry, I didn't quite get that. You can reply \"yes\" to confirm your details, " +
		"send a correction as \"Field: Value\", or ask to schedule a demo or meeting."
)

// Transition decides the next state and side effects for one inbound
// message. The table is total: any pair not handled explicitly keeps the
// state and emits exactly one clarifying reply.
func (m Machine) Transition(in TransitionInput) TransitionResult {
	// Terminal state absorbs everything without outbound traffic.
	if in.State.IsTerminal() {
		return TransitionResult{
			NewState: in.State,
			Commands: []convdomain.Command{
				convdomain.LogInternal{Note: fmt.Sprintf("message after close ignored: %.80s", in.Text)},
			},
		}
	}

	// Staff chatter gate, checked before any table lookup. Employees
	// talking business in the lead's thread must never trigger visitor
	// replies; the note is kept for the record.
	if in.SenderKind == leadsdomain.SenderEmployee && in.Intent.Kind == convdomain.IntentGeneralQuery {
		return TransitionResult{
			NewState: in.State,
			Commands: []convdomain.Command{
				convdomain.LogInternal{Note: fmt.Sprintf("employee note: %s", in.Text)},
			},
		}
	}

	switch in.Intent.Kind {
	case convdomain.IntentCorrection:
		return m.onCorrection(in)
	case convdomain.IntentConfirmationYes:
		if in.State == leadsdomain.StateExtractionDone || in.State == leadsdomain.StateAwaitingConfirmation {
			return TransitionResult{
				NewState: leadsdomain.StateConfirmed,
				Commands: []convdomain.Command{
					convdomain.StopDrip{},
					convdomain.StartDrip{DripName: m.defaultDripName},
					convdomain.Reply{Text: replyThankYou},
				},
			}
		}
	case convdomain.IntentConfirmationNo:
		if in.State == leadsdomain.StateExtractionDone || in.State == leadsdomain.StateAwaitingConfirmation {
			return TransitionResult{
				NewState: leadsdomain.StateNeedsCorrection,
				Commands: []convdomain.Command{
					convdomain.Reply{Text: replyCorrectionHowTo},
				},
			}
		}
	case convdomain.IntentDemoRequest:
		if in.State == leadsdomain.StateConfirmed || in.State == leadsdomain.StateCorrectionApplied {
			return m.onSchedule(in, convdomain.FollowUpDemo)
		}
	case convdomain.IntentMeetingRequest:
		if in.State == leadsdomain.StateConfirmed || in.State == leadsdomain.StateCorrectionApplied {
			return m.onSchedule(in, convdomain.FollowUpMeeting)
		}
	case convdomain.IntentIssueReport:
		return TransitionResult{
			NewState: in.State,
			Commands: []convdomain.Command{
				convdomain.NotifyEmployee{Text: fmt.Sprintf(
					"Issue reported by %s (%s): %s", displayName(in), in.Company, in.Text)},
				convdomain.Reply{Text: replyIssueAck},
			},
		}
	}

	// Total-table default: no state change, one clarifying prompt.
	return TransitionResult{
		NewState: in.State,
		Commands: []convdomain.Command{
			convdomain.Reply{Text: replyClarify},
		},
	}
}

func (m Machine) onCorrection(in TransitionInput) TransitionResult {
	if in.Directive == nil {
		return TransitionResult{
			NewState: in.State,
			Commands: []convdomain.Command{
				convdomain.Reply{Text: replyInvalidCorrection},
			},
		}
	}

	return TransitionResult{
		NewState: leadsdomain.StateCorrectionApplied,
		Commands: []convdomain.Command{
			convdomain.ApplyCorrection{Directive: *in.Directive},
			convdomain.Reply{Text: fmt.Sprintf(
				"Updated your details:\n• %s: %s\nReply \"yes\" if everything else is correct.",
				in.Directive.Field.Label(), in.Directive.Value)},
		},
	}
}

func (m Machine) onSchedule(in TransitionInput, kind convdomain.FollowUpKind) TransitionResult {
	var (
		newState leadsdomain.ConversationState
		at       time.Time
		label    string
	)
	switch kind {
	case convdomain.FollowUpDemo:
		newState = leadsdomain.StateScheduledDemo
		at = tomorrowAt(in.Now, 16)
		label = "demo"
	default:
		newState = leadsdomain.StateScheduledFollowup
		at = tomorrowAt(in.Now, 12)
		label = "meeting"
	}

	return TransitionResult{
		NewState: newState,
		Commands: []convdomain.Command{
			convdomain.CreateFollowUp{Kind: kind, At: at},
			convdomain.NotifyEmployee{Text: fmt.Sprintf(
				"%s from %s requested a %s. Suggested slot: %s.",
				displayName(in), in.Company, label, at.Format("Mon 2 Jan 3:04 PM"))},
			convdomain.Reply{Text: fmt.Sprintf(
				"Great! We've tentatively scheduled your %s for %s. Our team will confirm shortly.",
				label, at.Format("Monday 3:04 PM"))},
		},
	}
}

// tomorrowAt returns the next day at the given hour in the reference
// time's location.
func tomorrowAt(now time.Time, hour int) time.Time {
	t := now.AddDate(0, 0, 1)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, now.Location())
}

func displayName(in TransitionInput) string {
	if in.LeadName != "" {
		return in.LeadName
	}
	return "a visitor"
}
