package distractors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/englishaidol/aidol/internal/llm"
)

// Generator proposes raw distractor candidates for one row.
type Generator interface {
	// Propose returns candidates in preference order. They are not yet
	// sanitized or validated.
	Propose(ctx context.Context, in Input) ([]string, error)
}

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// NewLLMGenerator creates a Generator backed by provider.
func NewLLMGenerator(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// optionsOutput is the raw LLM response.
type optionsOutput struct {
	Options []string `json:"options"`
}

func (g *LLMGenerator) Propose(ctx context.Context, in Input) ([]string, error) {
	ctx = llm.WithSourceRow(llm.WithPurpose(ctx, "distractors"), in.SourceRow)

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(in, g.config)},
		},
		Schema:      OptionsSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw optionsOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return raw.Options, nil
}
