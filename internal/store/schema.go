package store

import (
	"context"
	"fmt"
	"strings"
)

// schema is written once for both dialects; the type tokens below are
// substituted per backend.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS import_batches (
		id                 TEXT PRIMARY KEY,
		created_at         {{timestamp}} NOT NULL,
		filename           TEXT NOT NULL DEFAULT '',
		skill_type         TEXT NOT NULL,
		skill_test_id      TEXT NOT NULL,
		rows_received      INTEGER NOT NULL DEFAULT 0,
		rows_valid         INTEGER NOT NULL DEFAULT 0,
		rows_with_warnings INTEGER NOT NULL DEFAULT 0,
		rows_with_errors   INTEGER NOT NULL DEFAULT 0,
		enriched           INTEGER NOT NULL DEFAULT 0,
		archive_key        TEXT NOT NULL DEFAULT '',
		diagnostics        TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_import_batches_created_at ON import_batches (created_at)`,
	`CREATE TABLE IF NOT EXISTS skill_test_questions (
		id                {{serial}},
		import_id         TEXT NOT NULL REFERENCES import_batches (id),
		created_at        {{timestamp}} NOT NULL,
		skill_type        TEXT NOT NULL,
		skill_test_id     TEXT NOT NULL,
		question_format   TEXT NOT NULL,
		content           TEXT NOT NULL,
		correct_answer    TEXT NOT NULL,
		incorrect_answers TEXT NOT NULL,
		explanation       TEXT NOT NULL DEFAULT '',
		original_sentence TEXT NOT NULL DEFAULT '',
		source_row        INTEGER NOT NULL DEFAULT 0,
		placeholder_indexes TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_skill_test_questions_skill_test ON skill_test_questions (skill_test_id)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            {{serial}},
		timestamp     {{timestamp}} NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    BIGINT NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_request_events_purpose ON llm_request_events (purpose)`,
}

var dialectTypes = map[Dialect]*strings.Replacer{
	DialectSQLite: strings.NewReplacer(
		"{{serial}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{timestamp}}", "TIMESTAMP",
	),
	DialectPostgres: strings.NewReplacer(
		"{{serial}}", "BIGSERIAL PRIMARY KEY",
		"{{timestamp}}", "TIMESTAMPTZ",
	),
}

// migrate creates any missing tables and indexes.
func (s *Store) migrate(ctx context.Context) error {
	r := dialectTypes[s.dialect]
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
