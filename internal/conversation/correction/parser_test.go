package correction

import (
	"testing"

	leadsdomain "expoconnect_backend/internal/leads/domain"
)

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		text  string
		field leadsdomain.CorrectionField
		value string
	}{
		{"Designation-HR", leadsdomain.FieldDesignation, "HR"},
		{"designation: Sales Head", leadsdomain.FieldDesignation, "Sales Head"},
		{"Name: Priya Sharma", leadsdomain.FieldName, "Priya Sharma"},
		{"naam - Priya", leadsdomain.FieldName, "Priya"},
		{"Company-Acme Corp.", leadsdomain.FieldCompany, "Acme Corp"},
		{"firm: Acme", leadsdomain.FieldCompany, "Acme"},
		{"organisation: Tata Motors", leadsdomain.FieldCompany, "Tata Motors"},
		{"Email: john@acme.com", leadsdomain.FieldEmail, "john@acme.com"},
		{"e-mail: john@acme.com", leadsdomain.FieldEmail, "john@acme.com"},
		{"mobile: 9876543210", leadsdomain.FieldPhone, "9876543210"},
		{"contact - +91 98765 43210", leadsdomain.FieldPhone, "+91 98765 43210"},
		{"role: CTO;", leadsdomain.FieldDesignation, "CTO"},
		{"Address: 12 MG Road, Bangalore", leadsdomain.FieldAddress, "12 MG Road, Bangalore"},
	}

	for _, tt := range tests {
		directive, ok := Parse(tt.text)
		if !ok {
			t.Errorf("Parse(%q) returned no directive", tt.text)
			continue
		}
		if directive.Field != tt.field {
			t.Errorf("Parse(%q) field = %q, want %q", tt.text, directive.Field, tt.field)
		}
		if directive.Value != tt.value {
			t.Errorf("Parse(%q) value = %q, want %q", tt.text, directive.Value, tt.value)
		}
		if directive.RawText != tt.text {
			t.Errorf("Parse(%q) raw text = %q", tt.text, directive.RawText)
		}
	}
}

func TestParseBareDesignation(t *testing.T) {
	tests := []struct {
		text  string
		value string
	}{
		{"HR", "HR"},
		{"hr.", "hr"},
		{"I am Manager", "Manager"},
		{"CEO here", "CEO"},
	}

	for _, tt := range tests {
		directive, ok := Parse(tt.text)
		if !ok {
			t.Errorf("Parse(%q) returned no directive", tt.text)
			continue
		}
		if directive.Field != leadsdomain.FieldDesignation {
			t.Errorf("Parse(%q) field = %q, want designation", tt.text, directive.Field)
		}
		if directive.Value != tt.value {
			t.Errorf("Parse(%q) value = %q, want %q", tt.text, directive.Value, tt.value)
		}
	}
}

func TestParseRejects(t *testing.T) {
	texts := []string{
		"",
		"hello there",
		"salary: 50000",
		"name:",
		"please schedule a demo tomorrow",
		"I work as a senior manager at a large company", // too long for bare title
		"- just a dash",
	}

	for _, text := range texts {
		if directive, ok := Parse(text); ok {
			t.Errorf("Parse(%q) = %+v, want no directive", text, directive)
		}
	}
}

func TestParseFirstDirectiveWins(t *testing.T) {
	directive, ok := Parse("Name: Priya\nCompany: Acme")
	if !ok {
		t.Fatal("expected a directive")
	}
	if directive.Field != leadsdomain.FieldName || directive.Value != "Priya" {
		t.Errorf("got %+v, want first directive name=Priya", directive)
	}
}
