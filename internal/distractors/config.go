package distractors

import "time"

// Config controls the behavior of the Enricher and LLMGenerator.
type Config struct {
	// Validators run on every proposal in order; the first failure
	// discards the proposal.
	Validators []Validator

	// Concurrency caps the number of rows enriched at once.
	Concurrency int

	// ExtraProposals asks the model for a few more options than needed so
	// rejected ones can be skipped without another call.
	ExtraProposals int

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// Timeout bounds one row's generation call, retries included. Zero
	// means no limit beyond the caller's context.
	Timeout time.Duration

	// PlaceholderPrefix identifies synthetic values ("Distractor N") so
	// the model cannot echo one back.
	PlaceholderPrefix string
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&NonEmptyValidator{},
			&PlaceholderValidator{},
			&DistinctValidator{},
		},
		Concurrency:       4,
		ExtraProposals:    2,
		MaxTokens:         256,
		Temperature:       0.7,
		PlaceholderPrefix: "Distractor",
	}
}
