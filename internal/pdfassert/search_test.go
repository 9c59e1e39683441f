package pdfassert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/site-e2e/internal/errs"
)

func TestSearchWithContext_WindowAroundKnownOffset(t *testing.T) {
	t.Parallel()
	line := strings.Repeat("x", 120) + "important" + strings.Repeat("y", 60)
	path := writePDF(t, [][]string{{line}}, nil)

	forEachBackend(t, func(t *testing.T, c *Checker) {
		matches, err := c.SearchWithContext(path, "important", 30)
		require.NoError(t, err)
		require.Len(t, matches, 1)

		m := matches[0]
		require.Equal(t, 120, m.Position)
		require.Equal(t, "important", m.MatchedText)
		require.Equal(t, 90, m.ContextStart)
		require.Equal(t, 159, m.ContextEnd)
		require.Equal(t, line[90:159], m.Context)
	})
}

func TestSearchWithContext_ClampsAtEdges(t *testing.T) {
	t.Parallel()
	path := writePDF(t, [][]string{{"important notes are important"}}, nil)

	matches, err := newQuietChecker().SearchWithContext(path, "important", DefaultContextChars)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.Equal(t, 0, m.ContextStart)
		require.Equal(t, len("important notes are important"), m.ContextEnd)
	}
	require.Equal(t, 0, matches[0].Position)
	require.Equal(t, 20, matches[1].Position)
}

func TestSearchWithContext_OverlappingOccurrences(t *testing.T) {
	t.Parallel()
	path := writePDF(t, [][]string{{"aaa"}}, nil)

	matches, err := newQuietChecker().SearchWithContext(path, "aa", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, 0, matches[0].Position)
	require.Equal(t, 1, matches[1].Position)
	require.Equal(t, "aa", matches[1].Context)
}

func TestSearchWithContext_NoMatchesIsEmpty(t *testing.T) {
	t.Parallel()
	path := writePDF(t, [][]string{{"nothing here"}}, nil)

	matches, err := newQuietChecker().SearchWithContext(path, "absent", 10)
	require.NoError(t, err)
	require.NotNil(t, matches)
	require.Empty(t, matches)
}

func TestSearchWithContext_CaseInsensitiveKeepsOriginalText(t *testing.T) {
	t.Parallel()
	path := writePDF(t, [][]string{{"An IMPORTANT note"}}, nil)
	c := newQuietChecker()

	matches, err := c.SearchWithContext(path, "important", 3)
	require.NoError(t, err)
	require.Empty(t, matches)

	matches, err = c.SearchWithContext(path, "important", 3, CaseInsensitive())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "IMPORTANT", matches[0].MatchedText)
	require.Equal(t, "An IMPORTANT no", matches[0].Context)
}

func TestSearchWithContext_Arguments(t *testing.T) {
	t.Parallel()
	path := writePDF(t, [][]string{{"important"}}, nil)
	c := newQuietChecker()

	_, err := c.SearchWithContext(path, "", 10)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	matches, err := c.SearchWithContext(path, "port", -5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "port", matches[0].Context)
}

func testSearchWithContext_WindowInvariants(t *rapid.T, dir string) {
	words := rapid.SliceOfN(rapid.SampledFrom(vocabulary), 1, 20).Draw(t, "words")
	needle := rapid.SampledFrom(vocabulary).Draw(t, "needle")
	radius := rapid.IntRange(0, 40).Draw(t, "radius")
	text := strings.Join(words, " ")

	path := writeRapidPDF(t, dir, [][]string{{text}})
	matches, err := newQuietChecker().SearchWithContext(path, needle, radius)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if want := countOverlapping(text, needle); len(matches) != want {
		t.Fatalf("got %d matches, want %d", len(matches), want)
	}
	prev := -1
	for _, m := range matches {
		if m.Position <= prev {
			t.Fatalf("matches out of order: %d after %d", m.Position, prev)
		}
		prev = m.Position
		if text[m.Position:m.Position+len(needle)] != needle {
			t.Fatalf("position %d does not start %q", m.Position, needle)
		}
		if m.ContextStart != max(0, m.Position-radius) || m.ContextEnd != min(len(text), m.Position+len(needle)+radius) {
			t.Fatalf("bad window [%d,%d) for position %d", m.ContextStart, m.ContextEnd, m.Position)
		}
		if m.Context != text[m.ContextStart:m.ContextEnd] {
			t.Fatalf("context %q does not match window", m.Context)
		}
	}
}

func countOverlapping(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func TestSearchWithContext_WindowInvariants(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) { testSearchWithContext_WindowInvariants(rt, dir) })
}
