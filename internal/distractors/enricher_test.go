package distractors

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/llm"
)

// paddedRow is a paraphrasing row with two synthetic distractors.
func paddedRow(sourceRow int) csvimport.NormalizedRow {
	return csvimport.NormalizedRow{
		SkillType:          csvimport.SkillParaphrasing,
		SkillTestID:        "st-1",
		QuestionFormat:     csvimport.FormatWordParaphrase,
		Content:            "big",
		CorrectAnswer:      "large",
		IncorrectAnswers:   []string{"small", "Distractor 1", "Distractor 2"},
		SourceRow:          sourceRow,
		PlaceholderIndexes: []int{1, 2},
	}
}

func fullRow() csvimport.NormalizedRow {
	return csvimport.NormalizedRow{
		SkillType:        csvimport.SkillParaphrasing,
		QuestionFormat:   csvimport.FormatWordParaphrase,
		Content:          "fast",
		CorrectAnswer:    "quick",
		IncorrectAnswers: []string{"slow", "late", "calm"},
		SourceRow:        3,
	}
}

type fakeGenerator struct {
	mu    sync.Mutex
	fn    func(in Input) ([]string, error)
	calls []Input
}

func (f *fakeGenerator) Propose(_ context.Context, in Input) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()
	return f.fn(in)
}

func TestBuildUserMessage(t *testing.T) {
	in := InputFor(paddedRow(2))
	msg := buildUserMessage(in, DefaultConfig())

	assert.Contains(t, msg, "Question format: word_paraphrase\n")
	assert.Contains(t, msg, "Existing wrong options:\n1. small")
	assert.NotContains(t, msg, "Distractor 1")
}

func newTestEnricher(gen Generator) *Enricher {
	return NewEnricher(gen, csvimport.NewSanitizer(0), DefaultConfig(), nil)
}

func TestInputFor(t *testing.T) {
	in := InputFor(paddedRow(2))
	assert.Equal(t, "big", in.Content)
	assert.Equal(t, "large", in.CorrectAnswer)
	assert.Equal(t, []string{"small"}, in.Existing)
	assert.Equal(t, 2, in.Count)
	assert.Equal(t, 2, in.SourceRow)
}

func TestEnrich_ReplacesPlaceholders(t *testing.T) {
	gen := &fakeGenerator{fn: func(Input) ([]string, error) {
		return []string{"tiny", "narrow", "minor"}, nil
	}}
	src := []csvimport.NormalizedRow{paddedRow(2), fullRow()}

	res, err := newTestEnricher(gen).Enrich(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	got := res.Rows[0]
	assert.Equal(t, []string{"small", "tiny", "narrow"}, got.IncorrectAnswers)
	assert.False(t, got.HasPlaceholders())
	assert.Equal(t, 2, res.Replaced)
	assert.Equal(t, 0, res.Kept)
	assert.Equal(t, 0, res.Failed)
	require.Len(t, res.Notes, 2)
	assert.Equal(t, 2, res.Notes[0].Row)
	assert.Contains(t, res.Notes[0].Message, `"Distractor 1" with "tiny"`)

	// Rows without placeholders are untouched and never sent.
	assert.Equal(t, fullRow(), res.Rows[1])
	assert.Len(t, gen.calls, 1)
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	gen := &fakeGenerator{fn: func(Input) ([]string, error) {
		return []string{"tiny", "narrow"}, nil
	}}
	src := []csvimport.NormalizedRow{paddedRow(2)}

	_, err := newTestEnricher(gen).Enrich(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, paddedRow(2), src[0])
}

func TestEnrich_RejectsBadProposals(t *testing.T) {
	gen := &fakeGenerator{fn: func(Input) ([]string, error) {
		return []string{
			"  ",           // empty after sanitizing
			"LARGE",        // correct answer, different case
			"Small",        // existing option
			"Distractor 7", // placeholder-shaped
			"<b>tiny</b>",  // sanitized to "tiny"
			"TINY",         // duplicate of an accepted proposal
		}, nil
	}}

	res, err := newTestEnricher(gen).Enrich(context.Background(), []csvimport.NormalizedRow{paddedRow(2)})
	require.NoError(t, err)

	got := res.Rows[0]
	assert.Equal(t, []string{"small", "tiny", "Distractor 2"}, got.IncorrectAnswers)
	assert.Equal(t, []int{2}, got.PlaceholderIndexes)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, 1, res.Kept)
}

func TestEnrich_ProviderErrorKeepsPlaceholders(t *testing.T) {
	gen := &fakeGenerator{fn: func(Input) ([]string, error) {
		return nil, errors.New("provider down")
	}}

	res, err := newTestEnricher(gen).Enrich(context.Background(), []csvimport.NormalizedRow{paddedRow(2), paddedRow(4)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 4, res.Kept)
	assert.Equal(t, 0, res.Replaced)
	assert.Equal(t, paddedRow(2), res.Rows[0])
	assert.Empty(t, res.Notes)
}

func TestEnrich_CanceledContext(t *testing.T) {
	gen := &fakeGenerator{fn: func(Input) ([]string, error) {
		return []string{"tiny"}, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEnricher(gen).Enrich(ctx, []csvimport.NormalizedRow{paddedRow(2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEnrich_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	gen := &fakeGenerator{fn: func(Input) ([]string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return []string{"tiny", "narrow"}, nil
	}}

	cfg := DefaultConfig()
	cfg.Concurrency = 2
	e := NewEnricher(gen, csvimport.NewSanitizer(0), cfg, nil)

	rows := make([]csvimport.NormalizedRow, 6)
	for i := range rows {
		rows[i] = paddedRow(i + 2)
	}

	done := make(chan *Result)
	go func() {
		res, err := e.Enrich(context.Background(), rows)
		if err != nil {
			t.Errorf("Enrich: %v", err)
		}
		done <- res
	}()
	for range rows {
		release <- struct{}{}
	}
	res := <-done

	require.NotNil(t, res)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 12, res.Replaced)
	for i, r := range res.Rows {
		assert.Equal(t, i+2, r.SourceRow, "row order must be preserved")
	}
}

func TestLLMGenerator_Propose(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"options":["tiny","narrow","minor","petite"]}`),
	})
	gen := NewLLMGenerator(mock, DefaultConfig())

	got, err := gen.Propose(context.Background(), InputFor(paddedRow(2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"tiny", "narrow", "minor", "petite"}, got)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, OptionsSchema, req.Schema)
	msg := req.Messages[0].Content
	assert.Contains(t, msg, "Prompt: big")
	assert.Contains(t, msg, "Correct answer: large")
	assert.Contains(t, msg, "1. small")
	assert.Contains(t, msg, "Propose 4 distractors.")
	assert.False(t, strings.Contains(msg, "Distractor 1"), "placeholders must not reach the prompt")
}

func TestLLMGenerator_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider()
	_, err := NewLLMGenerator(mock, DefaultConfig()).Propose(context.Background(), InputFor(paddedRow(2)))
	require.Error(t, err)
	var unavail *llm.ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavail))
}

func TestLLMGenerator_BadJSON(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`not json`)})
	_, err := NewLLMGenerator(mock, DefaultConfig()).Propose(context.Background(), InputFor(paddedRow(2)))
	require.Error(t, err)
}

func TestEnrich_WithLLMGenerator(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"options":["Large","tiny","narrow"]}`),
	})
	e := newTestEnricher(NewLLMGenerator(mock, DefaultConfig()))

	res, err := e.Enrich(context.Background(), []csvimport.NormalizedRow{paddedRow(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"small", "tiny", "narrow"}, res.Rows[0].IncorrectAnswers)
}
