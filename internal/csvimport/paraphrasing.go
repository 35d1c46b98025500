package csvimport

import "fmt"

// optionCount is the number of distinct options a paraphrasing item shows.
const optionCount = 4

// Paraphrasing assembles multiple-choice rows: one correct answer and
// exactly three distractors.
type Paraphrasing struct{}

func (Paraphrasing) SkillType() SkillType { return SkillParaphrasing }

func (Paraphrasing) Formats() *FormatSet { return paraphrasingFormats }

func (Paraphrasing) missingCritical(rec Record) []string {
	return missingFields(
		ColQuestionFormat, rec.QuestionFormat,
		ColWordOrSentence, rec.WordOrSentence,
		ColCorrectAnswer, rec.CorrectAnswer,
	)
}

func (Paraphrasing) assemble(rec Record, n *Normalizer, d *rowDiagnostics) *NormalizedRow {
	// CorrectAnswer is non-empty here, so it is always options[0].
	options, dropped := uniqueFold(append([]string{rec.CorrectAnswer}, rec.IncorrectAnswers[:]...))

	if len(options) < optionCount && n.config.PlaceholderPolicy == PolicyReject {
		d.fail("needs %d distinct answer options, found %d", optionCount, len(options))
		return nil
	}
	for _, o := range dropped {
		d.warn("dropped repeated answer %q", o)
	}

	var placeholders []int
	for next := 1; len(options) < optionCount; next++ {
		name := fmt.Sprintf("%s %d", n.config.PlaceholderPrefix, next)
		if containsFold(options, name) {
			continue
		}
		placeholders = append(placeholders, len(options)-1)
		options = append(options, name)
		d.warn("added synthetic distractor %q", name)
	}

	return &NormalizedRow{
		Content:            rec.WordOrSentence,
		CorrectAnswer:      options[0],
		IncorrectAnswers:   options[1:optionCount],
		Explanation:        rec.Explanation,
		OriginalSentence:   rec.OriginalSentence,
		PlaceholderIndexes: placeholders,
	}
}
