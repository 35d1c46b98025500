package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/englishaidol/aidol/internal/csvimport"
)

// importRepo implements ImportRepo with raw SQL.
type importRepo struct {
	s *Store
}

const insertBatchSQL = `INSERT INTO import_batches (
	id, created_at, filename, skill_type, skill_test_id,
	rows_received, rows_valid, rows_with_warnings, rows_with_errors,
	enriched, archive_key, diagnostics
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertQuestionSQL = `INSERT INTO skill_test_questions (
	import_id, created_at, skill_type, skill_test_id, question_format,
	content, correct_answer, incorrect_answers, explanation, original_sentence, source_row,
	placeholder_indexes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *importRepo) Save(ctx context.Context, batch *ImportBatch, rows []csvimport.NormalizedRow) error {
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	diag, err := json.Marshal(batch.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.s.rebind(insertBatchSQL),
		batch.ID, batch.CreatedAt, batch.Filename, string(batch.SkillType), batch.SkillTestID,
		batch.Summary.RowsReceived, batch.Summary.RowsValid,
		batch.Summary.RowsWithWarnings, batch.Summary.RowsWithErrors,
		batch.Enriched, batch.ArchiveKey, string(diag),
	)
	if err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, r.s.rebind(insertQuestionSQL))
		if err != nil {
			return fmt.Errorf("prepare question insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			answers, err := json.Marshal(row.IncorrectAnswers)
			if err != nil {
				return fmt.Errorf("marshal incorrect answers: %w", err)
			}
			placeholders, err := json.Marshal(nonNil(row.PlaceholderIndexes))
			if err != nil {
				return fmt.Errorf("marshal placeholder indexes: %w", err)
			}
			_, err = stmt.ExecContext(ctx,
				batch.ID, batch.CreatedAt, string(row.SkillType), row.SkillTestID, row.QuestionFormat,
				row.Content, row.CorrectAnswer, string(answers), row.Explanation, row.OriginalSentence, row.SourceRow,
				string(placeholders),
			)
			if err != nil {
				return fmt.Errorf("insert question from row %d: %w", row.SourceRow, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// nonNil keeps an empty list encoded as [] rather than null.
func nonNil(idx []int) []int {
	if idx == nil {
		return []int{}
	}
	return idx
}

const selectBatchSQL = `SELECT id, created_at, filename, skill_type, skill_test_id,
	rows_received, rows_valid, rows_with_warnings, rows_with_errors,
	enriched, archive_key, diagnostics
FROM import_batches`

func (r *importRepo) Get(ctx context.Context, id string) (*ImportBatch, error) {
	row := r.s.db.QueryRowContext(ctx, r.s.rebind(selectBatchSQL+` WHERE id = ?`), id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import batch: %w", err)
	}
	return b, nil
}

func (r *importRepo) List(ctx context.Context, opts QueryOpts) ([]ImportBatch, error) {
	q, args := withPaging(selectBatchSQL+` ORDER BY created_at DESC, id`, nil, opts)
	rows, err := r.s.db.QueryContext(ctx, r.s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}
	defer rows.Close()

	var out []ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import batch: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(sc scanner) (*ImportBatch, error) {
	var (
		b         ImportBatch
		skillType string
		diag      string
	)
	err := sc.Scan(&b.ID, &b.CreatedAt, &b.Filename, &skillType, &b.SkillTestID,
		&b.Summary.RowsReceived, &b.Summary.RowsValid,
		&b.Summary.RowsWithWarnings, &b.Summary.RowsWithErrors,
		&b.Enriched, &b.ArchiveKey, &diag)
	if err != nil {
		return nil, err
	}
	b.SkillType = csvimport.SkillType(skillType)
	if err := json.Unmarshal([]byte(diag), &b.Diagnostics); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return &b, nil
}

// withPaging appends LIMIT/OFFSET clauses when requested.
func withPaging(q string, args []any, opts QueryOpts) (string, []any) {
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			q += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}
	return q, args
}
