package distractors

import "github.com/englishaidol/aidol/internal/csvimport"

// Input holds everything needed to propose distractors for one row.
type Input struct {
	// Format is the row's canonical question format tag,
	// e.g. "word_paraphrase".
	Format string

	// Content is the word or sentence the learner paraphrases.
	Content string

	// CorrectAnswer is the option every proposal must differ from.
	CorrectAnswer string

	// Existing lists the real (non-synthetic) incorrect answers already
	// on the row. Proposals must differ from these too.
	Existing []string

	// Count is how many distractors are needed.
	Count int

	// SourceRow ties log lines back to the uploaded file.
	SourceRow int
}

// InputFor builds the Input for a row that carries placeholders.
func InputFor(row csvimport.NormalizedRow) Input {
	synthetic := make(map[int]bool, len(row.PlaceholderIndexes))
	for _, i := range row.PlaceholderIndexes {
		synthetic[i] = true
	}
	var existing []string
	for i, a := range row.IncorrectAnswers {
		if !synthetic[i] {
			existing = append(existing, a)
		}
	}
	return Input{
		Format:        row.QuestionFormat,
		Content:       row.Content,
		CorrectAnswer: row.CorrectAnswer,
		Existing:      existing,
		Count:         len(row.PlaceholderIndexes),
		SourceRow:     row.SourceRow,
	}
}

// Result reports what an enrichment pass did.
type Result struct {
	// Rows is a copy of the input rows with accepted proposals swapped in.
	Rows []csvimport.NormalizedRow

	// Notes records each replacement, keyed by source row.
	Notes []csvimport.Diagnostic

	// Replaced counts placeholders swapped for a model proposal.
	Replaced int

	// Kept counts placeholders left in place because no acceptable
	// proposal was available.
	Kept int

	// Failed counts rows whose provider call errored.
	Failed int
}
