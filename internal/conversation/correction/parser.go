// Package correction extracts field update directives from free text.
// The parser only produces directives; applying them (and validating the
// values) is the executor's job.
package correction

import (
	"regexp"
	"strings"

	convdomain "expoconnect_backend/internal/conversation/domain"
	leadsdomain "expoconnect_backend/internal/leads/domain"
)

// directivePattern matches "Field-Value" and "Field: Value" with optional
// spaces around the separator. The field token alternation is spelled out
// so "e-mail: x" binds the hyphen to the token, not to the separator.
var directivePattern = regexp.MustCompile(`(?i)^\s*(name|naam|company|firm|organization|organisation|phone|mobile|number|contact|e-mail|email|mail|designation|role|post|position|address)\s*[-:]\s*(\S.*)$`)

// designationTitles are single-word job titles that count as a designation
// directive on their own when the message is short enough to be an answer
// rather than a sentence.
var designationTitles = map[string]bool{
	"hr":        true,
	"manager":   true,
	"ceo":       true,
	"cto":       true,
	"cfo":       true,
	"director":  true,
	"engineer":  true,
	"developer": true,
	"sales":     true,
	"marketing": true,
	"founder":   true,
	"owner":     true,
}

// Parse extracts the first correction directive from the text. Returns
// false when no recognized field token is present. Multiple directives in
// one message are not supported; only the first line that parses wins.
func Parse(text string) (convdomain.CorrectionDirective, bool) {
	for _, line := range strings.Split(text, "\n") {
		if directive, ok := parseLine(line); ok {
			directive.RawText = text
			return directive, true
		}
	}

	if directive, ok := parseBareTitle(text); ok {
		directive.RawText = text
		return directive, true
	}

	return convdomain.CorrectionDirective{}, false
}

func parseLine(line string) (convdomain.CorrectionDirective, bool) {
	m := directivePattern.FindStringSubmatch(line)
	if m == nil {
		return convdomain.CorrectionDirective{}, false
	}

	field, ok := leadsdomain.ResolveField(m[1])
	if !ok {
		return convdomain.CorrectionDirective{}, false
	}

	value := cleanValue(m[2])
	if value == "" {
		return convdomain.CorrectionDirective{}, false
	}

	return convdomain.CorrectionDirective{Field: field, Value: value}, true
}

// parseBareTitle treats a lone job title ("HR", "I am manager") as a
// designation correction when the message has at most three words.
func parseBareTitle(text string) (convdomain.CorrectionDirective, bool) {
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > 3 {
		return convdomain.CorrectionDirective{}, false
	}

	for _, word := range words {
		token := strings.Trim(word, ".,;!?")
		if designationTitles[strings.ToLower(token)] {
			return convdomain.CorrectionDirective{
				Field: leadsdomain.FieldDesignation,
				Value: token,
			}, true
		}
	}

	return convdomain.CorrectionDirective{}, false
}

// cleanValue trims surrounding whitespace and trailing sentence punctuation
// so "HR." stores as "HR".
func cleanValue(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimRight(value, ".,;")
}
