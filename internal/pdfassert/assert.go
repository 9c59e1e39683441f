package pdfassert

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kuitang/site-e2e/internal/errs"
)

// AssertionError reports content that did not satisfy an assertion.
type AssertionError struct {
	Path    string
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

// ErrorCode implements the errs coded-error interface.
func (e *AssertionError) ErrorCode() errs.Code { return errs.AssertionFailed }

// PageIndexError reports a page number outside [1, PageCount].
type PageIndexError struct {
	Requested int
	PageCount int
}

func (e *PageIndexError) Error() string {
	return fmt.Sprintf("Invalid page number %d. PDF has %d pages.", e.Requested, e.PageCount)
}

// ErrorCode implements the errs coded-error interface.
func (e *PageIndexError) ErrorCode() errs.Code { return errs.InvalidPageIndex }

type matchOptions struct {
	caseInsensitive bool
}

// MatchOption tunes text matching.
type MatchOption func(*matchOptions)

// CaseInsensitive folds both the document text and the needle to lower case.
func CaseInsensitive() MatchOption {
	return func(o *matchOptions) { o.caseInsensitive = true }
}

func resolveMatch(opts []MatchOption) matchOptions {
	var o matchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// foldRunes lowercases rune by rune so rune offsets are preserved.
func foldRunes(s string) string {
	return strings.Map(unicode.ToLower, s)
}

func contains(haystack, needle string, o matchOptions) bool {
	if o.caseInsensitive {
		return strings.Contains(foldRunes(haystack), foldRunes(needle))
	}
	return strings.Contains(haystack, needle)
}

// AssertTextExists returns true when expected occurs in the document text.
func (c *Checker) AssertTextExists(path, expected string, opts ...MatchOption) (bool, error) {
	o := resolveMatch(opts)
	text, err := c.ExtractText(path)
	if err != nil {
		return false, err
	}
	if !contains(text, expected, o) {
		msg := fmt.Sprintf("Text '%s' not found in PDF: %s", expected, path)
		c.logger.Error(msg, "path", path, "text", expected)
		return false, &AssertionError{Path: path, Message: msg}
	}
	c.logger.Info("text found in pdf", "path", path, "text", expected, "case_insensitive", o.caseInsensitive)
	return true, nil
}

// AssertTextNotExists returns true when text does not occur in the document.
func (c *Checker) AssertTextNotExists(path, text string, opts ...MatchOption) (bool, error) {
	o := resolveMatch(opts)
	content, err := c.ExtractText(path)
	if err != nil {
		return false, err
	}
	if contains(content, text, o) {
		msg := fmt.Sprintf("Unexpected text '%s' found in PDF: %s", text, path)
		c.logger.Error(msg, "path", path, "text", text)
		return false, &AssertionError{Path: path, Message: msg}
	}
	c.logger.Info("text absent from pdf", "path", path, "text", text, "case_insensitive", o.caseInsensitive)
	return true, nil
}

// RegexFlag modifies how AssertRegexPattern compiles its pattern.
type RegexFlag uint8

const (
	IgnoreCase RegexFlag = 1 << iota
	Multiline
	DotAll
)

func (f RegexFlag) prefix() string {
	var flags string
	if f&IgnoreCase != 0 {
		flags += "i"
	}
	if f&Multiline != 0 {
		flags += "m"
	}
	if f&DotAll != 0 {
		flags += "s"
	}
	if flags == "" {
		return ""
	}
	return "(?" + flags + ")"
}

// AssertRegexPattern returns every non-overlapping match of pattern in
// document order. Zero matches is an assertion failure.
func (c *Checker) AssertRegexPattern(path, pattern string, flags RegexFlag) ([]string, error) {
	re, err := regexp.Compile(flags.prefix() + pattern)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, fmt.Sprintf("invalid regex pattern '%s': %v", pattern, err), err)
	}
	text, err := c.ExtractText(path)
	if err != nil {
		return nil, err
	}
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		msg := fmt.Sprintf("Regex pattern '%s' not found in PDF: %s", pattern, path)
		c.logger.Error(msg, "path", path, "pattern", pattern)
		return nil, &AssertionError{Path: path, Message: msg}
	}
	c.logger.Info("regex pattern matched", "path", path, "pattern", pattern, "matches", len(matches))
	return matches, nil
}

// AssertPageCount returns true when the document has exactly expected pages.
func (c *Checker) AssertPageCount(path string, expected int) (bool, error) {
	actual, err := c.PageCount(path)
	if err != nil {
		return false, err
	}
	if actual != expected {
		msg := fmt.Sprintf("PDF %s page count mismatch. Expected: %d, Actual: %d", path, expected, actual)
		c.logger.Error(msg, "path", path, "expected", expected, "actual", actual)
		return false, &AssertionError{Path: path, Message: msg}
	}
	c.logger.Info("page count verified", "path", path, "pages", actual)
	return true, nil
}

// AssertTextOnPage returns true when expected occurs on the given page.
func (c *Checker) AssertTextOnPage(path string, page int, expected string, opts ...MatchOption) (bool, error) {
	o := resolveMatch(opts)
	text, err := c.PageText(path, page)
	if err != nil {
		return false, err
	}
	if !contains(text, expected, o) {
		msg := fmt.Sprintf("Text '%s' not found on page %d of PDF: %s", expected, page, path)
		c.logger.Error(msg, "path", path, "page", page, "text", expected)
		return false, &AssertionError{Path: path, Message: msg}
	}
	c.logger.Info("text found on page", "path", path, "page", page, "text", expected)
	return true, nil
}
