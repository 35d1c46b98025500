package llm

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider returns an OpenAI-compatible provider pointed at
// OpenRouter. Model IDs are passed through untouched, e.g.
// "anthropic/claude-3-haiku".
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: API key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenRouterBaseURL
	}
	doer := &attributionDoer{next: http.DefaultClient, title: "aidol"}
	return newOpenAICompatible(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: base}, doer), nil
}

// attributionDoer adds the X-Title header OpenRouter uses to group
// requests by application.
type attributionDoer struct {
	next  openai.HTTPDoer
	title string
}

func (d *attributionDoer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-Title", d.title)
	return d.next.Do(req)
}
