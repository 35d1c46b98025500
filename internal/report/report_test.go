package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/importer"
	"github.com/englishaidol/aidol/internal/store"
)

func sampleOutput() *csvimport.Output {
	return &csvimport.Output{
		OK: true,
		Insert: []csvimport.NormalizedRow{
			{
				SkillType:          csvimport.SkillParaphrasing,
				QuestionFormat:     "Word Paraphrase",
				Content:            "fast",
				CorrectAnswer:      "quick",
				IncorrectAnswers:   []string{"slow", "Distractor 1", "Distractor 2"},
				SourceRow:          3,
				PlaceholderIndexes: []int{1, 2},
			},
		},
		Warnings: []csvimport.Diagnostic{{Row: 3, Message: "added 2 placeholder distractors"}},
		Errors:   []csvimport.Diagnostic{{Row: 4, Message: "unsupported question format \"PW\""}},
		Summary:  csvimport.Summary{RowsReceived: 2, RowsValid: 1, RowsWithWarnings: 1, RowsWithErrors: 1},
	}
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
}

func TestOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(&buf, sampleOutput()); err != nil {
		t.Fatalf("Output: %v", err)
	}
	assertContains(t, buf.String(),
		"Normalization", "OK",
		"Received", "Word Paraphrase", "quick",
		"slow | Distractor 1* | Distractor 2*",
		"Warnings (1)", "row 3: added 2 placeholder distractors",
		"Errors (1)", `row 4: unsupported question format "PW"`,
	)
}

func TestOutput_Rejected(t *testing.T) {
	var buf bytes.Buffer
	out := &csvimport.Output{Errors: []csvimport.Diagnostic{{Row: 1, Message: "missing required headers: CorrectAnswer"}}}
	if err := Output(&buf, out); err != nil {
		t.Fatalf("Output: %v", err)
	}
	assertContains(t, buf.String(), "REJECTED", "row 1: missing required headers")
	if strings.Contains(buf.String(), "Incorrect") {
		t.Errorf("row table rendered for an empty insert list:\n%s", buf.String())
	}
}

func TestImportResult(t *testing.T) {
	var buf bytes.Buffer
	res := &importer.Result{
		ImportID:   "imp-1",
		Inserted:   1,
		Enriched:   2,
		ArchiveKey: "imports/st-1/imp-1.csv",
		Output:     sampleOutput(),
		Notes:      []csvimport.Diagnostic{{Row: 3, Message: `replaced synthetic distractor "Distractor 1" with "sluggish"`}},
	}
	if err := ImportResult(&buf, res); err != nil {
		t.Fatalf("ImportResult: %v", err)
	}
	assertContains(t, buf.String(), "imp-1", "imports/st-1/imp-1.csv", "Enrichment (1)", "sluggish")

	buf.Reset()
	if err := ImportResult(&buf, &importer.Result{DryRun: true, Output: sampleOutput()}); err != nil {
		t.Fatalf("ImportResult: %v", err)
	}
	assertContains(t, buf.String(), "dry run")
}

func TestBatchesAndQuestions(t *testing.T) {
	var buf bytes.Buffer
	if err := Batches(&buf, nil); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "No imports found.")

	buf.Reset()
	b := store.ImportBatch{
		ID:          "imp-1",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SkillType:   csvimport.SkillSentenceScramble,
		SkillTestID: "st-7",
		Summary:     csvimport.Summary{RowsReceived: 5, RowsValid: 4, RowsWithErrors: 1},
		Diagnostics: store.Diagnostics{Errors: []csvimport.Diagnostic{{Row: 6, Message: "too few chunks"}}},
	}
	if err := Batches(&buf, []store.ImportBatch{b}); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "imp-1", "Sentence Structure Scramble", "st-7")

	buf.Reset()
	if err := Batch(&buf, &b); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "Import imp-1", "Errors (1)", "row 6: too few chunks")

	buf.Reset()
	if err := Questions(&buf, []store.Question{{ID: 1, NormalizedRow: sampleOutput().Insert[0]}}); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "fast", "quick")
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip = %q", got)
	}
	if got := clip("abcdefghij", 5); got != "abcd…" {
		t.Errorf("clip = %q, want %q", got, "abcd…")
	}
}
