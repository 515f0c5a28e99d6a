// Package domain holds the transient values exchanged between the intent
// classifier, the correction parser, and the state machine.
package domain

import leadsdomain "expoconnect_backend/internal/leads/domain"

// IntentKind is the classified purpose of an inbound visitor message.
type IntentKind string

const (
	IntentCorrection      IntentKind = "correction"
	IntentConfirmationYes IntentKind = "confirmation_yes"
	IntentConfirmationNo  IntentKind = "confirmation_no"
	IntentDemoRequest     IntentKind = "demo_request"
	IntentMeetingRequest  IntentKind = "meeting_request"
	IntentIssueReport     IntentKind = "issue_report"
	IntentGeneralQuery    IntentKind = "general_query"
	IntentUnknown         IntentKind = "unknown"
)

// AllIntentKinds lists every kind, used to constrain the AI layer's
// response schema.
var AllIntentKinds = []IntentKind{
	IntentCorrection,
	IntentConfirmationYes,
	IntentConfirmationNo,
	IntentDemoRequest,
	IntentMeetingRequest,
	IntentIssueReport,
	IntentGeneralQuery,
	IntentUnknown,
}

// LayerName identifies which classifier layer produced a result.
type LayerName string

const (
	LayerPattern LayerName = "pattern"
	LayerKeyword LayerName = "keyword"
	LayerAI      LayerName = "ai"
)

// MinConfidence is the floor below which a layer's result is not trusted
// and classification falls through to the next layer.
const MinConfidence = 0.6

// IntentResult is the outcome of classifying one inbound message.
type IntentResult struct {
	Kind       IntentKind
	Confidence float64
	Layer      LayerName
}

// Unknown is the zero-confidence fallback result.
func Unknown(layer LayerName) IntentResult {
	return IntentResult{Kind: IntentUnknown, Confidence: 0, Layer: layer}
}

// CorrectionDirective is a parsed instruction to rewrite one lead field.
type CorrectionDirective struct {
	Field   leadsdomain.CorrectionField
	Value   string
	RawText string
}
