package browser

import (
	"strings"
	"unicode"
)

// SanitizeName turns a Go test name such as "TestSmoke/fill_form" into a
// file-system friendly "TestSmoke_fill_form".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// ResultGroup is the directory a test's result screenshots are grouped
// under: the first two underscore-separated parts of its name.
func ResultGroup(name string) string {
	parts := strings.SplitN(name, "_", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "_")
}
