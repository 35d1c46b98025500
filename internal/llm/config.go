package llm

import (
	"fmt"
	"time"
)

// Config selects and tunes the provider used for distractor suggestions.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter"
	// or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
	RateLimit  RateLimitConfig

	// Timeout bounds one row's enrichment, retries included.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string // alias or model ID
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // any Chat Completions compatible endpoint
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string // vendor/model, passed through as is
	BaseURL string
}

// RetryConfig controls exponential backoff in RetryProvider.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// RateLimitConfig is a token bucket shared by all enrichment workers.
// A zero RequestsPerSecond turns pacing off.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Multiplier:  2,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 2, Burst: 2},
		Timeout:   45 * time.Second,
	}
}

// Validate reports a missing key for the selected provider.
func (c Config) Validate() error {
	var key, setting string
	switch c.Provider {
	case "anthropic":
		key, setting = c.Anthropic.APIKey, "llm.anthropic.api_key"
	case "openai":
		key, setting = c.OpenAI.APIKey, "llm.openai.api_key"
	case "gemini":
		key, setting = c.Gemini.APIKey, "llm.gemini.api_key"
	case "openrouter":
		key, setting = c.OpenRouter.APIKey, "llm.openrouter.api_key"
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s must be set for the %s provider", setting, c.Provider)
	}
	return nil
}
