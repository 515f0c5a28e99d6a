package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9876543210", "+919876543210"},
		{"09876543210", "+919876543210"},
		{"+91 98765 43210", "+919876543210"},
		{"  +919876543210  ", "+919876543210"},
		{"not-a-number", "not-a-number"},
		{"", ""},
	}

	for _, tc := range tests {
		got := NormalizeE164(tc.input)
		if got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSanitizeDigits(t *testing.T) {
	if got := SanitizeDigits("+91 98765-43210"); got != "919876543210" {
		t.Errorf("SanitizeDigits = %q, want %q", got, "919876543210")
	}
}

func TestLastDigits(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"+919876543210", 8, "76543210"},
		{"43210", 8, "43210"},
		{"", 8, ""},
	}

	for _, tc := range tests {
		if got := LastDigits(tc.input, tc.n); got != tc.want {
			t.Errorf("LastDigits(%q, %d) = %q, want %q", tc.input, tc.n, got, tc.want)
		}
	}
}
