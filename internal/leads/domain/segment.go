package domain

import "strings"

// Segments bucket leads by what their designation says about buying
// influence. Derived from the card data, never user-entered.
const (
	SegmentDecisionMaker = "decision_maker"
	SegmentTechnical     = "technical"
	SegmentPurchase      = "purchase"
	SegmentSales         = "sales"
	SegmentGeneral       = "general"
	SegmentUnknown       = "unknown"
)

// Outreach priorities attached to each segment.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// segmentRules are checked in order; the first keyword hit wins, so a
// "Sales Director" lands in decision_maker, not sales.
var segmentRules = []struct {
	segment  string
	priority string
	keywords []string
}{
	{SegmentDecisionMaker, PriorityHigh, []string{
		"owner", "director", "ceo", "coo", "cfo", "founder", "partner",
		"president", "gm", "general manager", "managing director", "md",
	}},
	{SegmentTechnical, PriorityMedium, []string{
		"manager", "engineer", "technical", "production", "head",
		"incharge", "in-charge", "supervisor",
	}},
	{SegmentPurchase, PriorityMedium, []string{
		"purchase", "procurement", "buyer", "purchasing", "sourcing",
		"supply chain",
	}},
	{SegmentSales, PriorityNormal, []string{
		"sales", "marketing", "business development", "bd",
		"account manager", "executive",
	}},
	{SegmentGeneral, PriorityLow, []string{
		"student", "intern", "trainee", "vendor", "supplier",
		"consultant", "visitor",
	}},
}

// SegmentFor derives a lead's segment and outreach priority from their
// designation. An empty designation is unknown rather than general, so
// the dashboard can tell "no card yet" from "card with an odd title".
func SegmentFor(designation string) (segment, priority string) {
	designation = strings.ToLower(strings.TrimSpace(designation))
	if designation == "" {
		return SegmentUnknown, PriorityLow
	}

	for _, rule := range segmentRules {
		for _, keyword := range rule.keywords {
			if matchesKeyword(designation, keyword) {
				return rule.segment, rule.priority
			}
		}
	}

	return SegmentGeneral, PriorityLow
}

// matchesKeyword does substring matching, except for two-letter
// abbreviations (GM, MD, BD), which only count as standalone words;
// as substrings they light up inside unrelated titles.
func matchesKeyword(designation, keyword string) bool {
	if len(keyword) > 2 {
		return strings.Contains(designation, keyword)
	}
	for _, word := range strings.Fields(designation) {
		if strings.Trim(word, ".,()") == keyword {
			return true
		}
	}
	return false
}
