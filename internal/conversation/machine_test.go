package conversation

import (
	"strings"
	"testing"
	"time"

	convdomain "expoconnect_backend/internal/conversation/domain"
	leadsdomain "expoconnect_backend/internal/leads/domain"
)

var testNow = time.Date(2026, time.March, 10, 11, 30, 0, 0, time.UTC)

func intent(kind convdomain.IntentKind) convdomain.IntentResult {
	return convdomain.IntentResult{Kind: kind, Confidence: 1.0, Layer: convdomain.LayerPattern}
}

func TestConfirmationYesStartsPostConfirmationDrip(t *testing.T) {
	m := NewMachine("post_confirmation")

	for _, state := range []leadsdomain.ConversationState{
		leadsdomain.StateExtractionDone,
		leadsdomain.StateAwaitingConfirmation,
	} {
		result := m.Transition(TransitionInput{
			State:      state,
			Intent:     intent(convdomain.IntentConfirmationYes),
			SenderKind: leadsdomain.SenderVisitor,
			Now:        testNow,
		})

		if result.NewState != leadsdomain.StateConfirmed {
			t.Errorf("from %s: new state = %s, want confirmed", state, result.NewState)
		}
		if len(result.Commands) != 3 {
			t.Fatalf("from %s: got %d commands, want 3", state, len(result.Commands))
		}
		if _, ok := result.Commands[0].(convdomain.StopDrip); !ok {
			t.Errorf("from %s: first command %T, want StopDrip", state, result.Commands[0])
		}
		start, ok := result.Commands[1].(convdomain.StartDrip)
		if !ok {
			t.Fatalf("from %s: second command %T, want StartDrip", state, result.Commands[1])
		}
		if start.DripName != "post_confirmation" {
			t.Errorf("drip name = %q, want post_confirmation", start.DripName)
		}
		if _, ok := result.Commands[2].(convdomain.Reply); !ok {
			t.Errorf("from %s: third command %T, want Reply", state, result.Commands[2])
		}
	}
}

func TestConfirmationNoAsksForCorrections(t *testing.T) {
	m := NewMachine("post_confirmation")

	result := m.Transition(TransitionInput{
		State:      leadsdomain.StateExtractionDone,
		Intent:     intent(convdomain.IntentConfirmationNo),
		SenderKind: leadsdomain.SenderVisitor,
		Now:        testNow,
	})

	if result.NewState != leadsdomain.StateNeedsCorrection {
		t.Errorf("new state = %s, want needs_correction", result.NewState)
	}
	if len(result.Commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(result.Commands))
	}
	if _, ok := result.Commands[0].(convdomain.Reply); !ok {
		t.Errorf("command %T, want Reply", result.Commands[0])
	}
}

func TestCorrectionAppliesFieldAndConfirmsItemized(t *testing.T) {
	m := NewMachine("post_confirmation")

	directive := &convdomain.CorrectionDirective{
		Field: leadsdomain.FieldDesignation,
		Value: "HR",
	}
	result := m.Transition(TransitionInput{
		State:      leadsdomain.StateExtractionDone,
		Intent:     intent(convdomain.IntentCorrection),
		Directive:  directive,
		SenderKind: leadsdomain.SenderVisitor,
		Now:        testNow,
	})

	if result.NewState != leadsdomain.StateCorrectionApplied {
		t.Errorf("new state = %s, want correction_applied", result.NewState)
	}
	if len(result.Commands) != 2 {
		t.Fatalf("got %d commands, want 2", len(result.Commands))
	}
	apply, ok := result.Commands[0].(convdomain.ApplyCorrection)
	if !ok {
		t.Fatalf("first command %T, want ApplyCorrection", result.Commands[0])
	}
	if apply.Directive.Field != leadsdomain.FieldDesignation || apply.Directive.Value != "HR" {
		t.Errorf("directive = %+v", apply.Directive)
	}
	reply, ok := result.Commands[1].(convdomain.Reply)
	if !ok {
		t.Fatalf("second command %T, want Reply", result.Commands[1])
	}
	if want := "• Designation: HR"; !contains(reply.Text, want) {
		t.Errorf("reply %q does not contain %q", reply.Text, want)
	}
}

func TestCorrectionWithoutDirectiveKeepsState(t *testing.T) {
	m := NewMachine("post_confirmation")

	result := m.Transition(TransitionInput{
		State:      leadsdomain.StateNeedsCorrection,
		Intent:     intent(convdomain.IntentCorrection),
		SenderKind: leadsdomain.SenderVisitor,
		Now:        testNow,
	})

	if result.NewState != leadsdomain.StateNeedsCorrection {
		t.Errorf("new state = %s, want needs_correction unchanged", result.NewState)
	}
	if len(result.Commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(result.Commands))
	}
}

func TestDemoRequestSchedulesTomorrowFour(t *testing.T) {
	m := NewMachine("post_confirmation")

	result := m.Transition(TransitionInput{
		State:      leadsdomain.StateConfirmed,
		Intent:     intent(convdomain.IntentDemoRequest),
		SenderKind: leadsdomain.SenderVisitor,
		LeadName:   "Priya Sharma",
		Company:    "Acme Corp",
		Now:        testNow,
	})

	if result.NewState != leadsdomain.StateScheduledDemo {
		t.Errorf("new state = %s, want scheduled_demo", result.NewState)
	}
	if len(result.Commands) != 3 {
		t.Fatalf("got %d commands, want 3", len(result.Commands))
	}

	followup, ok := result.Commands[0].(convdomain.CreateFollowUp)
	if !ok {
		t.Fatalf("first command %T, want CreateFollowUp", result.Commands[0])
	}
	want := time.Date(2026, time.March, 11, 16, 0, 0, 0, time.UTC)
	if followup.Kind != convdomain.FollowUpDemo || !followup.At.Equal(want) {
		t.Errorf("followup = %+v, want demo at %s", followup, want)
	}

	notify, ok := result.Commands[1].(convdomain.NotifyEmployee)
	if !ok {
		t.Fatalf("second command %T, want NotifyEmployee", result.Commands[1])
	}
	if !contains(notify.Text, "Priya Sharma") || !contains(notify.Text, "Acme Corp") {
		t.Errorf("notification %q missing lead identity", notify.Text)
	}
}

func TestMeetingRequestSchedulesTomorrowNoon(t *testing.T) {
	m := NewMachine("post_confirmation")

	result := m.Transition(TransitionInput{
		State:      leadsdomain.StateCorrectionApplied,
		Intent:     intent(convdomain.IntentMeetingRequest),
		SenderKind: leadsdomain.SenderVisitor,
		Now:        testNow,
	})

	if result.NewState != leadsdomain.StateScheduledFollowup {
		t.Errorf("new state = %s, want scheduled_followup", result.NewState)
	}
	followup, ok := result.Commands[0].(convdomain.CreateFollowUp)
	if !ok {
		t.Fatalf("first command %T, want CreateFollowUp", result.Commands[0])
	}
	want := time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)
	if followup.Kind != convdomain.FollowUpMeeting || !followup.At.Equal(want) {
		t.Errorf("followup = %+v, want meeting at %s", followup, want)
	}
}

func TestIssueReportEscalatesWithoutStateChange(t *testing.T) {
	m := NewMachine("post_confirmation")

	result := m.Transition(TransitionInput{
		State:      leadsdomain.StateConfirmed,
		Intent:     intent(convdomain.IntentIssueReport),
		SenderKind: leadsdomain.SenderVisitor,
		Text:       "the device is not working",
		Now:        testNow,
	})

	if result.NewState != leadsdomain.StateConfirmed {
		t.Errorf("new state = %s, want confirmed unchanged", result.NewState)
	}
	if len(result.Commands) != 2 {
		t.Fatalf("got %d commands, want 2", len(result.Commands))
	}
	if _, ok := result.Commands[0].(convdomain.NotifyEmployee); !ok {
		t.Errorf("first command %T, want NotifyEmployee", result.Commands[0])
	}
	if _, ok := result.Commands[1].(convdomain.Reply); !ok {
		t.Errorf("second command %T, want Reply", result.Commands[1])
	}
}

func TestEmployeeGeneralQueryEmitsNoReply(t *testing.T) {
	m := NewMachine("post_confirmation")

	result := m.Transition(TransitionInput{
		State:      leadsdomain.StateConfirmed,
		Intent:     intent(convdomain.IntentGeneralQuery),
		SenderKind: leadsdomain.SenderEmployee,
		Text:       "visitor seemed very interested in the premium tier",
		Now:        testNow,
	})

	if result.NewState != leadsdomain.StateConfirmed {
		t.Errorf("new state = %s, want confirmed unchanged", result.NewState)
	}
	if len(result.Commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(result.Commands))
	}
	if _, ok := result.Commands[0].(convdomain.LogInternal); !ok {
		t.Errorf("command %T, want LogInternal", result.Commands[0])
	}
}

func TestClosedAbsorbsEverything(t *testing.T) {
	m := NewMachine("post_confirmation")

	for _, kind := range convdomain.AllIntentKinds {
		result := m.Transition(TransitionInput{
			State:      leadsdomain.StateClosed,
			Intent:     intent(kind),
			SenderKind: leadsdomain.SenderVisitor,
			Now:        testNow,
		})
		if result.NewState != leadsdomain.StateClosed {
			t.Errorf("intent %s: new state = %s, want closed", kind, result.NewState)
		}
		for _, cmd := range result.Commands {
			if _, ok := cmd.(convdomain.LogInternal); !ok {
				t.Errorf("intent %s: closed state emitted %T", kind, cmd)
			}
		}
	}
}

// TestTransitionTableIsTotal walks every (state, intent) pair and checks
// that pairs outside the explicit rules keep the state and emit exactly
// one clarifying reply.
func TestTransitionTableIsTotal(t *testing.T) {
	m := NewMachine("post_confirmation")

	explicit := func(state leadsdomain.ConversationState, kind convdomain.IntentKind) bool {
		if state == leadsdomain.StateClosed {
			return true
		}
		switch kind {
		case convdomain.IntentCorrection, convdomain.IntentIssueReport:
			return true
		case convdomain.IntentConfirmationYes, convdomain.IntentConfirmationNo:
			return state == leadsdomain.StateExtractionDone || state == leadsdomain.StateAwaitingConfirmation
		case convdomain.IntentDemoRequest, convdomain.IntentMeetingRequest:
			return state == leadsdomain.StateConfirmed || state == leadsdomain.StateCorrectionApplied
		}
		return false
	}

	for _, state := range leadsdomain.AllStates {
		for _, kind := range convdomain.AllIntentKinds {
			if explicit(state, kind) {
				continue
			}

			result := m.Transition(TransitionInput{
				State:      state,
				Intent:     intent(kind),
				SenderKind: leadsdomain.SenderVisitor,
				Now:        testNow,
			})

			if result.NewState != state {
				t.Errorf("(%s, %s): state changed to %s", state, kind, result.NewState)
			}
			if len(result.Commands) != 1 {
				t.Fatalf("(%s, %s): got %d commands, want 1", state, kind, len(result.Commands))
			}
			if _, ok := result.Commands[0].(convdomain.Reply); !ok {
				t.Errorf("(%s, %s): command %T, want clarifying Reply", state, kind, result.Commands[0])
			}
		}
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
