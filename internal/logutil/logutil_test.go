package logutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func TestRedactFormValue(t *testing.T) {
	t.Parallel()
	cases := []struct {
		field, value, want string
	}{
		{"Email Address", "johndoe@gmail.com", "***@gmail.com"},
		{"contact_num", "09187777776", "*********76"},
		{"Name", "John Doe", "John Doe"},
		{"Company Name", "doers.org", "doers.org"},
		{"email", "", ""},
		{"phone", "n/a", "[REDACTED]"},
	}
	for _, tc := range cases {
		if got := RedactFormValue(tc.field, tc.value); got != tc.want {
			t.Errorf("RedactFormValue(%q, %q) = %q, want %q", tc.field, tc.value, got, tc.want)
		}
	}
}

func testRedactFormValue_NeverLeaksLocalPart(t *rapid.T) {
	local := rapid.StringMatching(`[a-z][a-z0-9.]{2,20}`).Draw(t, "local")
	domain := rapid.StringMatching(`[a-z]{2,10}\.(com|org|ph)`).Draw(t, "domain")
	got := RedactFormValue("email", local+"@"+domain)
	if strings.Contains(got, local+"@") {
		t.Fatalf("local part leaked: %q", got)
	}
	if !strings.HasSuffix(got, "@"+domain) {
		t.Fatalf("domain dropped: %q", got)
	}
}

func TestRedactFormValue_NeverLeaksLocalPart(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testRedactFormValue_NeverLeaksLocalPart)
}

func testTruncateForLog_Bounded(t *rapid.T) {
	value := rapid.String().Draw(t, "value")
	maxChars := rapid.IntRange(1, 40).Draw(t, "max")
	got := TruncateForLog(value, maxChars)
	if strings.Contains(got, "\n") {
		t.Fatalf("multi-line preview: %q", got)
	}
	limit := maxChars + utf8.RuneCountInString("... [truncated]")
	if utf8.RuneCountInString(got) > limit && !strings.HasSuffix(got, "[truncated]") {
		t.Fatalf("preview too long without marker: %q", got)
	}
}

func TestTruncateForLog_Bounded(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testTruncateForLog_Bounded)
}
