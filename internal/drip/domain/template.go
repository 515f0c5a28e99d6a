package domain

import "strings"

// RenderTemplate substitutes {{placeholder}} tokens against the lead's
// current field values. Unknown placeholders render as empty strings so a
// renamed field never leaks braces to the visitor.
func RenderTemplate(template string, lead DueMessage) string {
	replacer := strings.NewReplacer(
		"{{name}}", lead.LeadName,
		"{{company}}", lead.LeadCompany,
		"{{designation}}", lead.LeadDesignation,
		"{{phone}}", lead.LeadPhone,
	)
	rendered := replacer.Replace(template)

	// Drop any placeholder the replacer did not know.
	for {
		open := strings.Index(rendered, "{{")
		if open < 0 {
			break
		}
		end := strings.Index(rendered[open:], "}}")
		if end < 0 {
			break
		}
		rendered = rendered[:open] + rendered[open+end+2:]
	}

	return strings.TrimSpace(rendered)
}
