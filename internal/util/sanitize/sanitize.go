// Package sanitize cleans user-supplied text (id lists, search terms) before
// it is split or sent to a site.
//
// It removes:
//   - Windows/Mac line endings (CRLF/CR → LF)
//   - Invisible Unicode characters (zero-width spaces, BOM, soft hyphens)
//   - Runs of spaces and tabs
package sanitize

import (
	"regexp"
	"strings"
)

var (
	invisible = strings.NewReplacer(
		"\u200B", "", // Zero-width space
		"\u200C", "", // Zero-width non-joiner
		"\u200D", "", // Zero-width joiner
		"\uFEFF", "", // Zero-width no-break space (BOM)
		"\u00AD", "", // Soft hyphen
		"\u2060", "", // Word joiner
		"\u180E", "", // Mongolian vowel separator
	)
	blanks   = regexp.MustCompile(`[ \t]+`)
	newlines = regexp.MustCompile(`\n+`)
)

// Text normalizes a multi-line input such as an ids file: line endings become
// LF, invisible characters are dropped, blank runs collapse to one space and
// empty lines are removed.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = invisible.Replace(s)
	s = blanks.ReplaceAllString(s, " ")
	s = newlines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Term cleans a single-line search term: invisible characters are dropped and
// all whitespace, newlines included, collapses to single spaces.
func Term(s string) string {
	return strings.Join(strings.Fields(invisible.Replace(s)), " ")
}
