package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/pdfassert"
	"github.com/kuitang/site-e2e/internal/pdfassert/pdftest"
)

func toolResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "unexpected content type: %T", result.Content[0])
	return text.Text
}

func parseToolErrorPayload(t *testing.T, result *mcp.CallToolResult) toolErrorPayload {
	t.Helper()
	require.True(t, result.IsError)
	var payload toolErrorPayload
	require.NoError(t, json.Unmarshal([]byte(toolResultText(t, result)), &payload))
	return payload
}

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()
	_, err := pdftest.Write(dir, "report.pdf", pdftest.SampleReport(), pdftest.SampleReportInfo())
	require.NoError(t, err)
	checker := pdfassert.New(pdfassert.WithLogger(obs.Discard()))
	return NewHandler(checker, dir, obs.Discard()), dir
}

func call(t *testing.T, h *Handler, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h.HandleToolCall(context.Background(), name, args)
	require.NoError(t, err)
	return result
}

func TestHandleToolCall_ReadOperations(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	var count struct {
		PageCount int `json:"page_count"`
	}
	result := call(t, h, "pdf_page_count", map[string]any{"path": "report.pdf"})
	require.False(t, result.IsError)
	require.NoError(t, json.Unmarshal([]byte(toolResultText(t, result)), &count))
	require.Equal(t, pdftest.SampleReportPages, count.PageCount)

	var page struct {
		Text string `json:"text"`
	}
	result = call(t, h, "pdf_page_text", map[string]any{"path": "report.pdf", "page": 2})
	require.NoError(t, json.Unmarshal([]byte(toolResultText(t, result)), &page))
	require.Contains(t, page.Text, "Summary")

	var full struct {
		Text string `json:"text"`
	}
	result = call(t, h, "pdf_extract_text", map[string]any{"path": "report.pdf"})
	require.NoError(t, json.Unmarshal([]byte(toolResultText(t, result)), &full))
	require.Contains(t, full.Text, "Quality Assurance Report")

	var meta map[string]any
	result = call(t, h, "pdf_metadata", map[string]any{"path": "report.pdf"})
	require.NoError(t, json.Unmarshal([]byte(toolResultText(t, result)), &meta))
	require.EqualValues(t, pdftest.SampleReportPages, meta["page_count"])
	require.Contains(t, meta, "file_size")

	var search struct {
		Count   int               `json:"count"`
		Matches []pdfassert.Match `json:"matches"`
	}
	result = call(t, h, "pdf_search", map[string]any{"path": "report.pdf", "text": "important", "context_chars": 30})
	require.NoError(t, json.Unmarshal([]byte(toolResultText(t, result)), &search))
	require.Equal(t, 1, search.Count)
	require.Equal(t, "important", search.Matches[0].MatchedText)
}

func TestHandleToolCall_Assertions(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	passing := []struct {
		tool string
		args map[string]any
	}{
		{"pdf_assert_text", map[string]any{"path": "report.pdf", "text": "Quality Assurance"}},
		{"pdf_assert_text", map[string]any{"path": "report.pdf", "text": "quality assurance", "case_sensitive": false}},
		{"pdf_assert_no_text", map[string]any{"path": "report.pdf", "text": "CONFIDENTIAL"}},
		{"pdf_assert_regex", map[string]any{"path": "report.pdf", "pattern": `\d{4}-\d{2}-\d{2}`}},
		{"pdf_assert_regex", map[string]any{"path": "report.pdf", "pattern": `^summary$`, "flags": []any{"ignore_case", "multiline"}}},
		{"pdf_assert_page_count", map[string]any{"path": "report.pdf", "expected": 11}},
		{"pdf_assert_text_on_page", map[string]any{"path": "report.pdf", "page": 1, "text": "Title Page"}},
	}
	for _, tc := range passing {
		result := call(t, h, tc.tool, tc.args)
		require.False(t, result.IsError, "%s %v: %s", tc.tool, tc.args, toolResultText(t, result))
		require.Contains(t, toolResultText(t, result), `"passed": true`)
	}

	failing := []struct {
		tool string
		args map[string]any
		code errs.Code
	}{
		{"pdf_assert_text", map[string]any{"path": "report.pdf", "text": "Error"}, errs.AssertionFailed},
		{"pdf_assert_no_text", map[string]any{"path": "report.pdf", "text": "Summary"}, errs.AssertionFailed},
		{"pdf_assert_regex", map[string]any{"path": "report.pdf", "pattern": `(unclosed`}, errs.InvalidArgument},
		{"pdf_assert_regex", map[string]any{"path": "report.pdf", "pattern": `x`, "flags": []any{"global"}}, errs.InvalidArgument},
		{"pdf_assert_page_count", map[string]any{"path": "report.pdf", "expected": 3}, errs.AssertionFailed},
		{"pdf_assert_text_on_page", map[string]any{"path": "report.pdf", "page": 12, "text": "x"}, errs.InvalidPageIndex},
		{"pdf_page_count", map[string]any{"path": "missing.pdf"}, errs.NotFound},
		{"pdf_search", map[string]any{"path": "report.pdf", "text": ""}, errs.InvalidArgument},
		{"pdf_unknown", map[string]any{}, errs.NotFound},
	}
	for _, tc := range failing {
		payload := parseToolErrorPayload(t, call(t, h, tc.tool, tc.args))
		require.Equal(t, tc.code, payload.Code, "%s %v: %s", tc.tool, tc.args, payload.Message)
		require.NotEmpty(t, payload.Message)
	}
}

func TestHandleToolCall_PathsStayInsideRoot(t *testing.T) {
	t.Parallel()
	h, dir := newTestHandler(t)

	for _, path := range []string{"../report.pdf", "/etc/passwd", "a/../../x.pdf", ""} {
		payload := parseToolErrorPayload(t, call(t, h, "pdf_page_count", map[string]any{"path": path}))
		require.Equal(t, errs.InvalidArgument, payload.Code, path)
	}

	result := call(t, h, "pdf_page_count", map[string]any{"path": filepath.Join(dir, "report.pdf")})
	require.False(t, result.IsError, toolResultText(t, result))
}

func testDecodeToolArgs_UnknownFieldsRejected(t *rapid.T) {
	field := rapid.StringMatching(`[a-z_]{3,12}`).Filter(func(s string) bool { return s != "path" }).Draw(t, "field")
	var decoded pathArgs
	err := decodeToolArgs(map[string]any{
		"path": "report.pdf",
		field:  "unexpected",
	}, &decoded)
	if err == nil {
		t.Fatalf("expected error for unknown field %q", field)
	}
	if got := errs.CodeOf(err); got != errs.InvalidArgument {
		t.Fatalf("unexpected error code: got=%q want=%q", got, errs.InvalidArgument)
	}
}

func TestDecodeToolArgs_UnknownFieldsRejected(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testDecodeToolArgs_UnknownFieldsRejected)
}

func TestDecodeToolArgs_NilMapAndWrongTypes(t *testing.T) {
	t.Parallel()
	var opt struct {
		Optional string `json:"optional,omitempty"`
	}
	require.NoError(t, decodeToolArgs(nil, &opt))

	var page pageArgs
	err := decodeToolArgs(map[string]any{"path": "x.pdf", "page": "two"}, &page)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	err = decodeToolArgs(map[string]any{"path": "x.pdf", "page": 1.5}, &page)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}
