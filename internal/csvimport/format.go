package csvimport

import (
	"strings"
	"unicode"
)

// FormatSet is the closed list of question formats a variant accepts.
// Keys are fuzzy: only letters count and case is ignored, so
// "Word Paraphrase", "word-paraphrase" and "WORD_PARAPHRASE" all match.
type FormatSet struct {
	tags map[string]string // normalized key -> canonical tag
}

// NewFormatSet builds a set from canonical tags and their accepted spellings.
// Each canonical tag is also accepted as its own spelling.
func NewFormatSet(aliases map[string][]string) *FormatSet {
	fs := &FormatSet{tags: make(map[string]string)}
	for tag, spellings := range aliases {
		fs.tags[formatKey(tag)] = tag
		for _, s := range spellings {
			fs.tags[formatKey(s)] = tag
		}
	}
	return fs
}

// Match returns the canonical tag for raw, or false if raw is not allowed.
func (fs *FormatSet) Match(raw string) (string, bool) {
	key := formatKey(raw)
	if key == "" {
		return "", false
	}
	tag, ok := fs.tags[key]
	return tag, ok
}

// IsAllowed reports whether raw names an accepted format.
func (fs *FormatSet) IsAllowed(raw string) bool {
	_, ok := fs.Match(raw)
	return ok
}

func formatKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Paraphrasing formats.
const (
	FormatWordParaphrase     = "word_paraphrase"
	FormatPhraseParaphrase   = "phrase_paraphrase"
	FormatSentenceParaphrase = "sentence_paraphrase"
)

// FormatSentenceScramble is the single scramble format.
const FormatSentenceScramble = "sentence_scramble"

var paraphrasingFormats = NewFormatSet(map[string][]string{
	FormatWordParaphrase:     {"Word Paraphrase", "Paraphrase Word", "Paraphrase (Word)"},
	FormatPhraseParaphrase:   {"Phrase Paraphrase", "Paraphrase Phrase", "Paraphrase (Phrase)"},
	FormatSentenceParaphrase: {"Sentence Paraphrase", "Paraphrase Sentence", "Paraphrase (Sentence)"},
})

var scrambleFormats = NewFormatSet(map[string][]string{
	FormatSentenceScramble: {
		"Sentence Scramble",
		"Sentence Structure Scramble",
		"Scramble",
		"Unscramble",
		"Word Order",
		"Sentence Builder",
	},
})
