// Package pdf runs the report checks against the sample quality report. It
// uses SAMPLE_REPORT when that file exists, then the artifacts bucket when
// one is configured, and otherwise generates the report into a temp dir.
package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/site-e2e/internal/artifacts"
	"github.com/kuitang/site-e2e/internal/config"
	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/pdfassert"
	"github.com/kuitang/site-e2e/internal/pdfassert/pdftest"
)

func setupReport(t *testing.T) (*pdfassert.Checker, string) {
	t.Helper()
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	backend, err := pdfassert.BackendByName(cfg.PDFBackend)
	require.NoError(t, err)
	checker := pdfassert.New(pdfassert.WithBackend(backend), pdfassert.WithLogger(obs.Pkg("pdf_test")))

	if _, err := os.Stat(cfg.SampleReport); err == nil {
		return checker, cfg.SampleReport
	}
	path := filepath.Join(t.TempDir(), "sample_report.pdf")

	store, err := artifacts.FromSuiteConfig(context.Background(), cfg)
	require.NoError(t, err)
	if store != nil {
		err := store.DownloadFile(context.Background(), filepath.Base(cfg.SampleReport), path)
		if err == nil {
			return checker, path
		}
		if !errors.Is(err, artifacts.ErrObjectNotFound) {
			t.Fatalf("download sample report: %v", err)
		}
	}

	require.NoError(t, pdftest.WriteSampleReport(path))
	return checker, path
}

func TestReport_TextExists(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	ok, err := checker.AssertTextExists(path, "Quality Assurance")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.AssertTextExists(path, "quality assurance", pdfassert.CaseInsensitive())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReport_PageCount(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	ok, err := checker.AssertPageCount(path, 11)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReport_TextOnPages(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	for page, text := range map[int]string{1: "Title Page", 2: "Summary"} {
		ok, err := checker.AssertTextOnPage(path, page, text)
		require.NoError(t, err, "page %d", page)
		require.True(t, ok)
	}
}

func TestReport_DatePattern(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	matches, err := checker.AssertRegexPattern(path, `\d{4}-\d{2}-\d{2}`, 0)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestReport_ForbiddenTextAbsent(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	for _, text := range []string{"Error", "CONFIDENTIAL"} {
		ok, err := checker.AssertTextNotExists(path, text)
		require.NoError(t, err, text)
		require.True(t, ok)
	}
}

func TestReport_Metadata(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	meta, err := checker.Metadata(path)
	require.NoError(t, err)
	require.Greater(t, meta.PageCount, 0)

	flat := meta.Map()
	require.Contains(t, flat, "file_size")
	require.Contains(t, flat, "page_count")
}

func TestReport_SearchWithContext(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	matches, err := checker.SearchWithContext(path, "important", 30)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		require.Equal(t, "important", m.MatchedText)
		require.Contains(t, m.Context, "important")
		require.LessOrEqual(t, len([]rune(m.Context)), len("important")+60)
	}
}

func TestReport_FullText(t *testing.T) {
	t.Parallel()
	checker, path := setupReport(t)

	text, err := checker.ExtractText(path)
	require.NoError(t, err)
	require.NotEmpty(t, strings.TrimSpace(text))
}

func TestReport_MissingFile(t *testing.T) {
	t.Parallel()
	checker, _ := setupReport(t)

	_, err := checker.ExtractText(filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	require.Equal(t, errs.NotFound, errs.CodeOf(err))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReport_RoundTripThroughArtifacts(t *testing.T) {
	t.Parallel()
	checker, local := setupReport(t)
	store := artifacts.TestStore(t, "reports", "runs/pdf")
	ctx := context.Background()

	key, err := store.UploadFile(ctx, local, "sample_report.pdf")
	require.NoError(t, err)
	require.Equal(t, "runs/pdf/sample_report.pdf", key)

	fetched := filepath.Join(t.TempDir(), "fetched", "sample_report.pdf")
	require.NoError(t, store.DownloadFile(ctx, "sample_report.pdf", fetched))

	want, err := checker.ExtractText(local)
	require.NoError(t, err)
	got, err := checker.ExtractText(fetched)
	require.NoError(t, err)
	require.Equal(t, want, got)

	err = store.DownloadFile(ctx, "missing.pdf", filepath.Join(t.TempDir(), "missing.pdf"))
	require.ErrorIs(t, err, artifacts.ErrObjectNotFound)
}
