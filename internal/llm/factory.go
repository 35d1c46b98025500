package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/englishaidol/aidol/internal/store"
)

// NewProvider builds the configured provider and stacks the decorators
// around it, outermost first: retry, pacing, event logging. Each retry
// therefore waits for its own rate-limit token and is recorded as its
// own event. The mock provider is returned bare.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, logger *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return NewMockProvider(), nil
	}

	base, err := newBase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}
	p := WithLogging(base, cfg.Provider, events, logger)
	p = WithRateLimit(p, cfg.RateLimit)
	return WithRetry(p, cfg.Retry, logger), nil
}

func newBase(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	default: // "openrouter"; Validate rejected anything else
		return NewOpenRouterProvider(cfg.OpenRouter)
	}
}
