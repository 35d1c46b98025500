package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/englishaidol/aidol/internal/csvimport"
)

// questionRepo implements QuestionRepo with raw SQL.
type questionRepo struct {
	s *Store
}

func (r *questionRepo) ListBySkillTest(ctx context.Context, skillTestID string, opts QueryOpts) ([]Question, error) {
	q, args := withPaging(`SELECT id, import_id, created_at, skill_type, skill_test_id, question_format,
	content, correct_answer, incorrect_answers, explanation, original_sentence, source_row,
	placeholder_indexes
FROM skill_test_questions
WHERE skill_test_id = ?
ORDER BY id`, []any{skillTestID}, opts)

	rows, err := r.s.db.QueryContext(ctx, r.s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var (
			qn        Question
			skillType string
			answers   string
			synthetic string
		)
		if err := rows.Scan(&qn.ID, &qn.ImportID, &qn.CreatedAt, &skillType, &qn.SkillTestID,
			&qn.QuestionFormat, &qn.Content, &qn.CorrectAnswer, &answers,
			&qn.Explanation, &qn.OriginalSentence, &qn.SourceRow, &synthetic); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		qn.SkillType = csvimport.SkillType(skillType)
		if err := json.Unmarshal([]byte(answers), &qn.IncorrectAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal incorrect answers of question %d: %w", qn.ID, err)
		}
		if err := json.Unmarshal([]byte(synthetic), &qn.PlaceholderIndexes); err != nil {
			return nil, fmt.Errorf("unmarshal placeholder indexes of question %d: %w", qn.ID, err)
		}
		if len(qn.PlaceholderIndexes) == 0 {
			qn.PlaceholderIndexes = nil
		}
		out = append(out, qn)
	}
	return out, rows.Err()
}

func (r *questionRepo) CountBySkillTest(ctx context.Context, skillTestID string) (int, error) {
	var n int
	err := r.s.db.QueryRowContext(ctx,
		r.s.rebind(`SELECT COUNT(*) FROM skill_test_questions WHERE skill_test_id = ?`), skillTestID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
