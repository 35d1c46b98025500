package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/englishaidol/aidol/internal/csvimport"
)

var memSeq atomic.Int64

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared", memSeq.Add(1))
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Dialect() != DialectSQLite {
		t.Errorf("dialect = %q, want sqlite", s.Dialect())
	}
}

func TestOpenDialect_Unsupported(t *testing.T) {
	_, err := OpenDialect(context.Background(), "oracle", "x")
	if err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by TestFileDBUsesWAL.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestFileDBUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aidol.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: DialectPostgres}
	got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?")
	if got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}

	lite := &Store{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestDefaultDBPath_Env(t *testing.T) {
	want := filepath.Join(t.TempDir(), "sub", "x.db")
	t.Setenv("AIDOL_DB", want)
	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestDefaultDBPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIDOL_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if want := filepath.Join(dir, "aidol", "aidol.db"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func sampleRows(skillTestID string) []csvimport.NormalizedRow {
	return []csvimport.NormalizedRow{
		{
			SkillType:          csvimport.SkillParaphrasing,
			SkillTestID:        skillTestID,
			QuestionFormat:     csvimport.FormatWordParaphrase,
			Content:            "big",
			CorrectAnswer:      "large",
			IncorrectAnswers:   []string{"small", "tiny", "Distractor 1"},
			Explanation:        "synonym",
			SourceRow:          2,
			PlaceholderIndexes: []int{2},
		},
		{
			SkillType:        csvimport.SkillParaphrasing,
			SkillTestID:      skillTestID,
			QuestionFormat:   csvimport.FormatWordParaphrase,
			Content:          "fast",
			CorrectAnswer:    "quick",
			IncorrectAnswers: []string{"slow", "late", "calm"},
			SourceRow:        3,
		},
	}
}

func TestImportSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.ImportRepo()

	batch := &ImportBatch{
		ID:          "imp-1",
		Filename:    "words.csv",
		SkillType:   csvimport.SkillParaphrasing,
		SkillTestID: "st-1",
		Summary:     csvimport.Summary{RowsReceived: 3, RowsValid: 2, RowsWithWarnings: 1, RowsWithErrors: 1},
		Enriched:    1,
		ArchiveKey:  "imports/st-1/imp-1.csv",
		Diagnostics: Diagnostics{
			Warnings: []csvimport.Diagnostic{{Row: 2, Message: `added synthetic distractor "Distractor 1"`}},
			Errors:   []csvimport.Diagnostic{{Row: 4, Message: "missing correct_answer"}},
		},
	}
	if err := repo.Save(ctx, batch, sampleRows("st-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if batch.CreatedAt.IsZero() {
		t.Error("Save should stamp CreatedAt")
	}

	got, err := repo.Get(ctx, "imp-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "words.csv" || got.SkillType != csvimport.SkillParaphrasing {
		t.Errorf("unexpected batch: %+v", got)
	}
	if got.Summary != batch.Summary {
		t.Errorf("summary = %+v, want %+v", got.Summary, batch.Summary)
	}
	if got.Enriched != 1 || got.ArchiveKey != batch.ArchiveKey {
		t.Errorf("enriched/archive = %d/%q", got.Enriched, got.ArchiveKey)
	}
	if len(got.Diagnostics.Warnings) != 1 || len(got.Diagnostics.Errors) != 1 {
		t.Fatalf("diagnostics = %+v", got.Diagnostics)
	}
	if got.Diagnostics.Errors[0].Row != 4 {
		t.Errorf("error row = %d, want 4", got.Diagnostics.Errors[0].Row)
	}
}

func TestImportGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ImportRepo().Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestImportSave_RollbackOnDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.ImportRepo()

	if err := repo.Save(ctx, &ImportBatch{ID: "dup", SkillType: csvimport.SkillParaphrasing, SkillTestID: "st-9"}, sampleRows("st-9")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	err := repo.Save(ctx, &ImportBatch{ID: "dup", SkillType: csvimport.SkillParaphrasing, SkillTestID: "st-9"}, sampleRows("st-9"))
	if err == nil {
		t.Fatal("expected duplicate id error")
	}

	n, err := s.QuestionRepo().CountBySkillTest(ctx, "st-9")
	if err != nil {
		t.Fatalf("CountBySkillTest: %v", err)
	}
	if n != 2 {
		t.Errorf("questions = %d, want 2 (failed save must not leave rows)", n)
	}
}

func TestImportList_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.ImportRepo()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		b := &ImportBatch{
			ID:          id,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			SkillType:   csvimport.SkillSentenceScramble,
			SkillTestID: "st-2",
		}
		if err := repo.Save(ctx, b, nil); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	all, err := repo.List(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("order = %v", batchIDs(all))
	}

	page, err := repo.List(ctx, QueryOpts{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("page = %v, want [b]", batchIDs(page))
	}
}

func batchIDs(bs []ImportBatch) []string {
	ids := make([]string, len(bs))
	for i, b := range bs {
		ids[i] = b.ID
	}
	return ids
}

func TestQuestionsBySkillTest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.ImportRepo().Save(ctx, &ImportBatch{ID: "i1", SkillType: csvimport.SkillParaphrasing, SkillTestID: "st-1"}, sampleRows("st-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.ImportRepo().Save(ctx, &ImportBatch{ID: "i2", SkillType: csvimport.SkillParaphrasing, SkillTestID: "st-other"}, sampleRows("st-other")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	qs, err := s.QuestionRepo().ListBySkillTest(ctx, "st-1", QueryOpts{})
	if err != nil {
		t.Fatalf("ListBySkillTest: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	q := qs[0]
	if q.ImportID != "i1" || q.Content != "big" || q.CorrectAnswer != "large" {
		t.Errorf("unexpected first question: %+v", q)
	}
	if len(q.IncorrectAnswers) != 3 || q.IncorrectAnswers[2] != "Distractor 1" {
		t.Errorf("incorrect answers = %v", q.IncorrectAnswers)
	}
	if q.SourceRow != 2 || q.Explanation != "synonym" {
		t.Errorf("source row/explanation = %d/%q", q.SourceRow, q.Explanation)
	}
	if len(q.PlaceholderIndexes) != 1 || q.PlaceholderIndexes[0] != 2 {
		t.Errorf("placeholder indexes = %v, want [2]", q.PlaceholderIndexes)
	}
	if qs[1].PlaceholderIndexes != nil {
		t.Errorf("second question placeholders = %v, want none", qs[1].PlaceholderIndexes)
	}

	limited, err := s.QuestionRepo().ListBySkillTest(ctx, "st-1", QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("ListBySkillTest limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}

	n, err := s.QuestionRepo().CountBySkillTest(ctx, "missing")
	if err != nil {
		t.Fatalf("CountBySkillTest: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestQuestionsKeepPlaceholderIndexes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	header := strings.Join(csvimport.RequiredHeaders, ",")
	out, err := csvimport.New(csvimport.Paraphrasing{}, csvimport.DefaultConfig()).
		Normalize(header+"\nword paraphrase,,cat,feline,animal,,,", "st-5")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(out.Insert) != 1 {
		t.Fatalf("insert = %d rows, want 1", len(out.Insert))
	}
	want := out.Insert[0]

	if err := s.ImportRepo().Save(ctx, &ImportBatch{ID: "i5", SkillType: csvimport.SkillParaphrasing, SkillTestID: "st-5"}, out.Insert); err != nil {
		t.Fatalf("Save: %v", err)
	}
	qs, err := s.QuestionRepo().ListBySkillTest(ctx, "st-5", QueryOpts{})
	if err != nil {
		t.Fatalf("ListBySkillTest: %v", err)
	}
	if len(qs) != 1 {
		t.Fatalf("got %d questions, want 1", len(qs))
	}
	if !reflect.DeepEqual(qs[0].NormalizedRow, want) {
		t.Errorf("stored row = %+v\nwant %+v", qs[0].NormalizedRow, want)
	}
	if !reflect.DeepEqual(qs[0].PlaceholderIndexes, []int{1, 2}) {
		t.Errorf("placeholder indexes = %v, want [1 2]", qs[0].PlaceholderIndexes)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "m1", Purpose: "distractors", InputTokens: 100, OutputTokens: 20, LatencyMs: 200, Success: true, RequestBody: "{}", ResponseBody: `{"options":[]}`},
		{Provider: "anthropic", Model: "m1", Purpose: "distractors", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "m2", Purpose: "other", LatencyMs: 30, Success: false, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("AppendLLMRequest: %v", err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("QueryLLMEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Model != "m2" || got[0].Success || got[0].ErrorMessage != "boom" {
		t.Errorf("newest event = %+v", got[0])
	}

	one, err := repo.GetLLMEvent(ctx, got[1].ID)
	if err != nil {
		t.Fatalf("GetLLMEvent: %v", err)
	}
	if one == nil || one.InputTokens != 50 {
		t.Errorf("GetLLMEvent = %+v", one)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("GetLLMEvent missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing event, got %+v", missing)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByPurpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	d := byPurpose[0]
	if d.Purpose != "distractors" || d.Calls != 2 || d.InputTokens != 150 || d.OutputTokens != 30 || d.AvgLatencyMs != 150 {
		t.Errorf("distractors usage = %+v", d)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByModel: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "m1" || byModel[0].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}
