// Package logutil keeps personal data and long document text out of logs.
package logutil

import (
	"strings"
	"unicode/utf8"
)

// IsSensitiveFormField returns true when a form field name likely holds
// personal data that must not appear verbatim in logs or reports.
func IsSensitiveFormField(field string) bool {
	normalized := strings.ToLower(strings.TrimSpace(field))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, " ", "")

	switch {
	case strings.Contains(normalized, "email"):
		return true
	case strings.Contains(normalized, "phone"):
		return true
	case strings.Contains(normalized, "contactnum"):
		return true
	case strings.Contains(normalized, "mobile"):
		return true
	case strings.Contains(normalized, "password"):
		return true
	case strings.Contains(normalized, "token"):
		return true
	default:
		return false
	}
}

// RedactFormValue masks a form value when the field looks sensitive.
// Emails keep their domain and phone-like values keep their last two digits
// so a failing run can still be told apart from another.
func RedactFormValue(field, value string) string {
	if !IsSensitiveFormField(field) || value == "" {
		return value
	}
	if at := strings.LastIndex(value, "@"); at > 0 {
		return "***" + value[at:]
	}
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits >= 4 {
		runes := []rune(value)
		return strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-2:])
	}
	return "[REDACTED]"
}

// TruncateForLog returns a single-line truncated preview for unstructured values.
func TruncateForLog(value string, maxChars int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized := strings.ReplaceAll(trimmed, "\n", "\\n")
	if maxChars <= 0 || utf8.RuneCountInString(normalized) <= maxChars {
		return normalized
	}
	runes := []rune(normalized)
	return string(runes[:maxChars]) + "... [truncated]"
}
