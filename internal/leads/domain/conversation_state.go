package domain

// ConversationState is the authoritative per-lead position in the capture
// and confirmation flow. Stored as a string column on the lead row and
// only ever changed through a compare-and-set write.
type ConversationState string

const (
	StateNew                  ConversationState = "new"
	StateNeedCard             ConversationState = "need_card"
	StateCardReceived         ConversationState = "card_received"
	StateExtractionDone       ConversationState = "extraction_done"
	StateAwaitingConfirmation ConversationState = "awaiting_confirmation"
	StateNeedsCorrection      ConversationState = "needs_correction"
	StateCorrectionApplied    ConversationState = "correction_applied"
	StateConfirmed            ConversationState = "confirmed"
	StateScheduledDemo        ConversationState = "scheduled_demo"
	StateScheduledFollowup    ConversationState = "scheduled_followup"
	StateClosed               ConversationState = "closed"
)

// AllStates lists every conversation state, used to keep the transition
// table total and to validate values read from storage.
var AllStates = []ConversationState{
	StateNew,
	StateNeedCard,
	StateCardReceived,
	StateExtractionDone,
	StateAwaitingConfirmation,
	StateNeedsCorrection,
	StateCorrectionApplied,
	StateConfirmed,
	StateScheduledDemo,
	StateScheduledFollowup,
	StateClosed,
}

var validStates = func() map[ConversationState]bool {
	m := make(map[ConversationState]bool, len(AllStates))
	for _, s := range AllStates {
		m[s] = true
	}
	return m
}()

// IsValidState reports whether the value is a known conversation state.
func IsValidState(s ConversationState) bool {
	return validStates[s]
}

// IsTerminal reports whether the state admits no further transitions.
func (s ConversationState) IsTerminal() bool {
	return s == StateClosed
}
