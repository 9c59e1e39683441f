package pdfassert

import (
	"fmt"

	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/logutil"
)

// DefaultContextChars is the context radius callers use when they have no
// preference.
const DefaultContextChars = 50

// Match is one occurrence found by SearchWithContext. Offsets count
// characters (runes) into the extracted document text.
type Match struct {
	Position     int    `json:"position"`
	MatchedText  string `json:"matched_text"`
	Context      string `json:"context"`
	ContextStart int    `json:"context_start"`
	ContextEnd   int    `json:"context_end"`
}

// SearchWithContext finds every occurrence of search, resuming one character
// after each hit so overlapping occurrences are all reported. Each match
// carries up to contextChars characters either side, clamped to the text.
// No matches is an empty slice, not an error.
func (c *Checker) SearchWithContext(path, search string, contextChars int, opts ...MatchOption) ([]Match, error) {
	if search == "" {
		return nil, errs.New(errs.InvalidArgument, "search text must not be empty")
	}
	if contextChars < 0 {
		contextChars = 0
	}
	o := resolveMatch(opts)

	text, err := c.ExtractText(path)
	if err != nil {
		return nil, err
	}

	content := []rune(text)
	needle := []rune(search)
	hay := content
	if o.caseInsensitive {
		hay = []rune(foldRunes(text))
		needle = []rune(foldRunes(search))
	}

	matches := []Match{}
	for pos := indexRunes(hay, needle, 0); pos >= 0; pos = indexRunes(hay, needle, pos+1) {
		end := pos + len(needle)
		start := max(0, pos-contextChars)
		stop := min(len(content), end+contextChars)
		matches = append(matches, Match{
			Position:     pos,
			MatchedText:  string(content[pos:end]),
			Context:      string(content[start:stop]),
			ContextStart: start,
			ContextEnd:   stop,
		})
	}

	c.logger.Info(fmt.Sprintf("found %d matches for '%s' in PDF", len(matches), search),
		"path", path,
		"search", logutil.TruncateForLog(search, 80),
		"matches", len(matches),
	)
	return matches, nil
}

// indexRunes returns the first index >= from where needle starts in hay, or -1.
func indexRunes(hay, needle []rune, from int) int {
	for i := from; i+len(needle) <= len(hay); i++ {
		if hasRunePrefix(hay[i:], needle) {
			return i
		}
	}
	return -1
}

func hasRunePrefix(s, prefix []rune) bool {
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}
