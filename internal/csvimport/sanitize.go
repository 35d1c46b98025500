package csvimport

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxFieldLength is the display budget for every string field.
	DefaultMaxFieldLength = 180

	// minCutIndex keeps punctuation-aware truncation from cutting a field
	// down to a stub: only punctuation past this rune index is considered.
	minCutIndex = 60
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>]*>`)

	smartQuotes = strings.NewReplacer(
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
	)
)

// CleanDocument applies the document-level steps once: strip a leading
// byte-order mark, compose to NFC, and straighten curly quotes.
func CleanDocument(doc string) string {
	doc = strings.TrimPrefix(doc, "\ufeff")
	doc = norm.NFC.String(doc)
	return smartQuotes.Replace(doc)
}

// Sanitizer cleans individual fields for display. It is lossy on purpose:
// markup is dropped, whitespace is flattened and long values are cut.
type Sanitizer struct {
	MaxLength int
}

// NewSanitizer returns a Sanitizer with the given length budget. A
// non-positive budget falls back to DefaultMaxFieldLength.
func NewSanitizer(maxLength int) Sanitizer {
	if maxLength <= 0 {
		maxLength = DefaultMaxFieldLength
	}
	return Sanitizer{MaxLength: maxLength}
}

// Field strips tags, collapses whitespace runs (newlines included) to single
// spaces, trims, and truncates.
func (s Sanitizer) Field(raw string) string {
	v := htmlTagRe.ReplaceAllString(raw, "")
	v = strings.Join(strings.Fields(v), " ")
	return s.Truncate(v)
}

// Truncate cuts v to at most MaxLength runes. It prefers to end on the last
// '.', ',', ';' or ':' found past rune index 60 within the budget and
// otherwise hard-cuts at the budget, dropping whitespace left at the cut.
func (s Sanitizer) Truncate(v string) string {
	runes := []rune(v)
	if len(runes) <= s.MaxLength {
		return v
	}
	window := runes[:s.MaxLength]
	for i := len(window) - 1; i > minCutIndex; i-- {
		switch window[i] {
		case '.', ',', ';', ':':
			return string(window[:i+1])
		}
	}
	return strings.TrimRightFunc(string(window), unicode.IsSpace)
}

// foldKey is the case-insensitive comparison key for answer values.
// A Caser carries state, so each call gets its own.
func foldKey(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether two answers are the same ignoring case.
func EqualFold(a, b string) bool {
	return foldKey(a) == foldKey(b)
}
