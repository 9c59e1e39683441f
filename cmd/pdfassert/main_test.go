package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/site-e2e/internal/pdfassert/pdftest"
)

func sampleReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, pdftest.WriteSampleReport(path))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("E2E_CONFIG", "")
	t.Setenv("BASE_URL", "")
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"-log-level", "error"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_ExitCodes(t *testing.T) {
	report := sampleReport(t)
	missing := filepath.Join(t.TempDir(), "missing.pdf")

	cases := []struct {
		name string
		args []string
		want int
	}{
		{"text found", []string{"assert-text", report, "Quality Assurance"}, 0},
		{"text folded", []string{"assert-text", "-i", report, "quality assurance"}, 0},
		{"text absent", []string{"assert-no-text", report, "CONFIDENTIAL"}, 0},
		{"page count", []string{"assert-page-count", report, "11"}, 0},
		{"text on page", []string{"assert-text-on-page", report, "2", "Summary"}, 0},
		{"assertion fails", []string{"assert-text", report, "Error"}, 1},
		{"bad page", []string{"page-text", report, "12"}, 2},
		{"page not a number", []string{"page-text", report, "two"}, 2},
		{"unknown command", []string{"frobnicate"}, 2},
		{"missing args", []string{"assert-text", report}, 2},
		{"missing file", []string{"page-count", missing}, 3},
	}
	for _, tc := range cases {
		code, _, stderr := runCLI(t, tc.args...)
		require.Equal(t, tc.want, code, "%s: %s", tc.name, stderr)
	}
}

func TestRun_FailurePrintsMessage(t *testing.T) {
	report := sampleReport(t)
	code, _, stderr := runCLI(t, "assert-page-count", report, "3")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "FAIL: ")
	require.Contains(t, stderr, "Expected: 3, Actual: 11")
}

func TestRun_SearchAndMetadataEmitJSON(t *testing.T) {
	report := sampleReport(t)

	code, stdout, stderr := runCLI(t, "search", "-context", "30", report, "important")
	require.Equal(t, 0, code, stderr)
	var matches []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &matches))
	require.Len(t, matches, 1)
	require.Equal(t, "important", matches[0]["matched_text"])

	code, stdout, stderr = runCLI(t, "metadata", report)
	require.Equal(t, 0, code, stderr)
	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &meta))
	require.EqualValues(t, 11, meta["page_count"])
	require.Equal(t, "QA Automation", meta["Author"])
}

func TestRun_WriteSample(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "sample.pdf")
	code, _, stderr := runCLI(t, "write-sample", out)
	require.Equal(t, 0, code, stderr)

	code, stdout, _ := runCLI(t, "page-count", out)
	require.Equal(t, 0, code)
	require.Equal(t, "11\n", stdout)
}
