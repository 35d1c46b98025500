package csvimport

import "strings"

// minChunks is the smallest scramble worth importing.
const minChunks = 2

// SentenceScramble assembles reorder rows. The answer columns hold the
// chunks in their correct order: CorrectAnswer is the first chunk and the
// incorrect-answer columns hold the rest.
type SentenceScramble struct{}

func (SentenceScramble) SkillType() SkillType { return SkillSentenceScramble }

func (SentenceScramble) Formats() *FormatSet { return scrambleFormats }

func (SentenceScramble) missingCritical(rec Record) []string {
	return missingFields(
		ColQuestionFormat, rec.QuestionFormat,
		ColCorrectAnswer, rec.CorrectAnswer,
	)
}

func (SentenceScramble) assemble(rec Record, n *Normalizer, d *rowDiagnostics) *NormalizedRow {
	chunks, dropped := uniqueFold(append([]string{rec.CorrectAnswer}, rec.IncorrectAnswers[:]...))
	for _, c := range dropped {
		d.warn("dropped repeated chunk %q", c)
	}

	if len(chunks) < minChunks {
		d.warn("needs at least %d distinct chunks, found %d; row skipped", minChunks, len(chunks))
		return nil
	}

	content := rec.WordOrSentence
	if content == "" {
		content = n.config.ScrambleInstruction
	}

	original := rec.OriginalSentence
	if original == "" {
		original = n.sanitizer.Truncate(strings.Join(chunks, " "))
		d.warn("original_sentence is empty; rebuilt from chunks")
	}

	return &NormalizedRow{
		Content:          content,
		CorrectAnswer:    chunks[0],
		IncorrectAnswers: chunks[1:],
		Explanation:      rec.Explanation,
		OriginalSentence: original,
	}
}
