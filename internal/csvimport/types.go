package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// SkillType labels the practice activity family a question belongs to.
type SkillType string

const (
	SkillParaphrasing     SkillType = "Paraphrasing Challenge"
	SkillSentenceScramble SkillType = "Sentence Structure Scramble"
)

// NormalizedRow is one validated, import-ready question record.
// Rows are built once per valid input row and never mutated afterwards.
type NormalizedRow struct {
	SkillType        SkillType `json:"skill_type"`
	SkillTestID      string    `json:"skill_test_id"`
	QuestionFormat   string    `json:"question_format"`
	Content          string    `json:"content"`
	CorrectAnswer    string    `json:"correct_answer"`
	IncorrectAnswers []string  `json:"incorrect_answers"`
	Explanation      string    `json:"explanation,omitempty"`
	OriginalSentence string    `json:"original_sentence,omitempty"`

	// SourceRow is the 1-based line number the row was read from.
	SourceRow int `json:"source_row"`

	// PlaceholderIndexes lists positions in IncorrectAnswers that hold
	// synthetic "Distractor N" values rather than file content.
	PlaceholderIndexes []int `json:"placeholder_indexes,omitempty"`
}

// HasPlaceholders reports whether any incorrect answer is synthetic.
func (r *NormalizedRow) HasPlaceholders() bool {
	return len(r.PlaceholderIndexes) > 0
}

// Diagnostic is a warning or error tied to a source row.
type Diagnostic struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("row %d: %s", d.Row, d.Message)
}

// Summary counts what happened to the rows of one file.
type Summary struct {
	RowsReceived     int `json:"rows_received"`
	RowsValid        int `json:"rows_valid"`
	RowsWithWarnings int `json:"rows_with_warnings"`
	RowsWithErrors   int `json:"rows_with_errors"`
}

// Output is the result of normalizing one uploaded file.
type Output struct {
	OK       bool            `json:"ok"`
	Insert   []NormalizedRow `json:"insert"`
	Warnings []Diagnostic    `json:"warnings"`
	Errors   []Diagnostic    `json:"errors"`
	Summary  Summary         `json:"summary"`
}

// HeaderError is returned when the header row lacks required columns.
// The whole file is rejected.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("missing required header(s): %s", strings.Join(e.Missing, ", "))
}

// ErrUnknownSkill is returned by VariantFor for an unrecognized skill name.
var ErrUnknownSkill = errors.New("unknown skill type")
