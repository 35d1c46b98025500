package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/englishaidol/aidol/internal/store"
)

func TestLLMEvents(t *testing.T) {
	var buf bytes.Buffer
	if err := LLMEvents(&buf, nil); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "No LLM events found.")

	buf.Reset()
	events := []store.LLMRequestEvent{{
		ID:        42,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		LLMRequestEventData: store.LLMRequestEventData{
			Provider: "openai", Model: "gpt-4o-mini", Purpose: "distractors",
			InputTokens: 120, OutputTokens: 30, LatencyMs: 850, Success: true,
		},
	}}
	if err := LLMEvents(&buf, events); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "42", "distractors", "gpt-4o-mini", "850", "✓")
}

func TestLLMEvent(t *testing.T) {
	var buf bytes.Buffer
	e := &store.LLMRequestEvent{
		ID: 3,
		LLMRequestEventData: store.LLMRequestEventData{
			Provider: "anthropic", Model: "claude-haiku", Purpose: "distractors",
			ErrorMessage: "rate limited", RequestBody: `{"prompt":"x"}`,
		},
	}
	if err := LLMEvent(&buf, e); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "anthropic", "rate limited", `{"prompt":"x"}`, "Response", "(not captured)")
}

func TestLLMStats(t *testing.T) {
	var buf bytes.Buffer
	if err := LLMStats(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "No LLM usage recorded yet.")

	buf.Reset()
	byPurpose := []store.PurposeUsage{{Purpose: "distractors", Calls: 2, InputTokens: 1000, OutputTokens: 500, AvgLatencyMs: 700}}
	byModel := []store.ModelUsage{
		{Model: "gpt-4o-mini", Calls: 1, InputTokens: 1_000_000, OutputTokens: 1_000_000},
		{Model: "home-grown", Calls: 1, InputTokens: 10, OutputTokens: 10},
	}
	if err := LLMStats(&buf, byPurpose, byModel); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(),
		"Usage by Purpose", "distractors", "1500",
		"Estimated Cost (USD)", "$0.75", "TOTAL (partial)",
		"Pricing unavailable for: home-grown",
	)
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.004, "$0.0040"},
		{0.75, "$0.75"},
		{12.5, "$12.50"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.in); got != tt.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
