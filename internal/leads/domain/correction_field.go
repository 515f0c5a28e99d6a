package domain

import (
	"regexp"
	"strings"
)

// CorrectionField is a lead field that visitors may rewrite through a
// correction directive. The whitelist is fixed; anything else is rejected
// instead of guessed at.
type CorrectionField string

const (
	FieldName        CorrectionField = "name"
	FieldCompany     CorrectionField = "company"
	FieldPhone       CorrectionField = "phone"
	FieldEmail       CorrectionField = "email"
	FieldDesignation CorrectionField = "designation"
	FieldAddress     CorrectionField = "address"
)

// fieldAliases maps the tokens visitors actually type to canonical fields.
var fieldAliases = map[string]CorrectionField{
	"name":         FieldName,
	"naam":         FieldName,
	"company":      FieldCompany,
	"firm":         FieldCompany,
	"organization": FieldCompany,
	"organisation": FieldCompany,
	"phone":        FieldPhone,
	"mobile":       FieldPhone,
	"number":       FieldPhone,
	"contact":      FieldPhone,
	"email":        FieldEmail,
	"mail":         FieldEmail,
	"e-mail":       FieldEmail,
	"designation":  FieldDesignation,
	"role":         FieldDesignation,
	"post":         FieldDesignation,
	"position":     FieldDesignation,
	"address":      FieldAddress,
}

// ResolveField maps a raw field token to its canonical CorrectionField.
func ResolveField(token string) (CorrectionField, bool) {
	field, ok := fieldAliases[strings.ToLower(strings.TrimSpace(token))]
	return field, ok
}

// Label returns the display name used in itemized correction confirmations.
func (f CorrectionField) Label() string {
	return strings.ToUpper(string(f)[:1]) + string(f)[1:]
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmailShape reports whether the value looks like an email address.
// Full deliverability checks belong to the outer API surface, not here.
func ValidEmailShape(value string) bool {
	return emailShape.MatchString(value)
}
