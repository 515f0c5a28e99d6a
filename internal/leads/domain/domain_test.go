package domain

import "testing"

func TestResolveField(t *testing.T) {
	tests := []struct {
		token string
		want  CorrectionField
		ok    bool
	}{
		{"name", FieldName, true},
		{"naam", FieldName, true},
		{"Company", FieldCompany, true},
		{"firm", FieldCompany, true},
		{"organisation", FieldCompany, true},
		{"mobile", FieldPhone, true},
		{"number", FieldPhone, true},
		{"contact", FieldPhone, true},
		{"e-mail", FieldEmail, true},
		{"MAIL", FieldEmail, true},
		{"role", FieldDesignation, true},
		{"post", FieldDesignation, true},
		{"position", FieldDesignation, true},
		{" address ", FieldAddress, true},
		{"salary", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ResolveField(tt.token)
		if ok != tt.ok {
			t.Errorf("ResolveField(%q) ok = %v, want %v", tt.token, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ResolveField(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestSegmentFor(t *testing.T) {
	tests := []struct {
		designation  string
		wantSegment  string
		wantPriority string
	}{
		{"CEO", SegmentDecisionMaker, PriorityHigh},
		{"Sales Director", SegmentDecisionMaker, PriorityHigh},
		{"Managing Director", SegmentDecisionMaker, PriorityHigh},
		{"GM", SegmentDecisionMaker, PriorityHigh},
		{"Production Engineer", SegmentTechnical, PriorityMedium},
		{"Plant Head", SegmentTechnical, PriorityMedium},
		{"Procurement Officer", SegmentPurchase, PriorityMedium},
		{"Supply Chain Lead", SegmentPurchase, PriorityMedium},
		{"Marketing Executive", SegmentSales, PriorityNormal},
		{"Intern", SegmentGeneral, PriorityLow},
		{"Astronaut", SegmentGeneral, PriorityLow},
		{"", SegmentUnknown, PriorityLow},
		// "gm" must not fire inside longer words.
		{"Programmer", SegmentGeneral, PriorityLow},
	}

	for _, tt := range tests {
		segment, priority := SegmentFor(tt.designation)
		if segment != tt.wantSegment || priority != tt.wantPriority {
			t.Errorf("SegmentFor(%q) = (%q, %q), want (%q, %q)",
				tt.designation, segment, priority, tt.wantSegment, tt.wantPriority)
		}
	}
}

func TestValidEmailShape(t *testing.T) {
	valid := []string{"a@b.co", "john.doe@example.com", "x+y@sub.domain.io"}
	for _, v := range valid {
		if !ValidEmailShape(v) {
			t.Errorf("ValidEmailShape(%q) = false, want true", v)
		}
	}

	invalid := []string{"", "plain", "a@b", "a b@c.com", "@x.com", "a@.com "}
	for _, v := range invalid {
		if ValidEmailShape(v) {
			t.Errorf("ValidEmailShape(%q) = true, want false", v)
		}
	}
}

func TestIsValidState(t *testing.T) {
	for _, s := range AllStates {
		if !IsValidState(s) {
			t.Errorf("IsValidState(%q) = false, want true", s)
		}
	}
	if IsValidState("dormant") {
		t.Error("IsValidState(\"dormant\") = true, want false")
	}
}

func TestIsTerminal(t *testing.T) {
	if !StateClosed.IsTerminal() {
		t.Error("closed should be terminal")
	}
	for _, s := range AllStates {
		if s != StateClosed && s.IsTerminal() {
			t.Errorf("state %q should not be terminal", s)
		}
	}
}
