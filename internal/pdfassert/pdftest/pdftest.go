// Package pdftest builds small, valid PDF files for tests and for the sample
// report used by the PDF suite.
package pdftest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Build returns a PDF with one page per element of pages. Each string in a
// page becomes one line of Helvetica text. A nil info writes no information
// dictionary.
//
// Object layout: 1 catalog, 2 page tree, 3 font, 4 info, then a page object
// and its content stream for every page.
func Build(pages [][]string, info map[string]string) []byte {
	n := len(pages)
	total := 4 + 2*n
	offsets := make([]int, total+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	obj := func(num int, body string) {
		offsets[num] = b.Len()
		b.WriteString(strconv.Itoa(num))
		b.WriteString(" 0 obj\n")
		b.WriteString(body)
		b.WriteString("\nendobj\n")
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	obj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj(4, infoDict(info))

	for i, lines := range pages {
		obj(pageObj(i), fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>",
			pageObj(i)+1))
		stream := contentStream(lines)
		obj(pageObj(i)+1, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", total+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", total+1)
	if info != nil {
		trailer += " /Info 4 0 R"
	}
	fmt.Fprintf(&b, "trailer\n%s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return []byte(b.String())
}

func pageObj(i int) int { return 5 + 2*i }

func infoDict(info map[string]string) string {
	if len(info) == 0 {
		return "<< >>"
	}
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("<<")
	for _, k := range keys {
		fmt.Fprintf(&b, " /%s (%s)", k, Escape(info[k]))
	}
	b.WriteString(" >>")
	return b.String()
}

func contentStream(lines []string) string {
	var b strings.Builder
	b.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", Escape(line))
	}
	b.WriteString("ET")
	return b.String()
}

// Escape encodes s as the body of a PDF literal string. Latin-1 runes are
// written as octal escapes; anything wider becomes '?'.
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r < 0x20:
			fmt.Fprintf(&b, `\%03o`, r)
		case r < 0x7f:
			b.WriteRune(r)
		case r >= 0xa0 && r <= 0xff:
			fmt.Fprintf(&b, `\%03o`, r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

// Write builds a PDF into dir/name and returns its path.
func Write(dir, name string, pages [][]string, info map[string]string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages, info), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Corrupt returns bytes that look like the start of a PDF but cannot be parsed.
func Corrupt() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R\ntruncated")
}

// SampleReportPages is the page count of SampleReport.
const SampleReportPages = 11

// SampleReport returns the pages of the 11-page quality report used by the
// PDF suite: a title page, a summary with an "important" note, and numbered
// sections.
func SampleReport() [][]string {
	pages := [][]string{
		{"Title Page", "Quality Assurance Report", "Prepared 2024-01-15"},
		{"Summary", "This release passed every important regression check.", "Contact: qa-team@example.com"},
	}
	sections := []string{
		"Scope", "Environment", "Smoke Results", "Regression Results", "Navigation",
		"Contact Form", "Accessibility", "Performance", "Appendix",
	}
	for i, name := range sections {
		pages = append(pages, []string{
			fmt.Sprintf("Section %d: %s", i+1, name),
			fmt.Sprintf("Checks for %s completed on 2024-01-15.", strings.ToLower(name)),
			fmt.Sprintf("Page %d of %d", i+3, SampleReportPages),
		})
	}
	return pages
}

// SampleReportInfo is the information dictionary written into the sample report.
func SampleReportInfo() map[string]string {
	return map[string]string{
		"Title":    "Quality Assurance Report",
		"Author":   "QA Automation",
		"Producer": "site-e2e pdftest",
	}
}

// WriteSampleReport writes the sample report to path, creating parent
// directories as needed.
func WriteSampleReport(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, Build(SampleReport(), SampleReportInfo()), 0o644)
}
