package distractors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/englishaidol/aidol/internal/csvimport"
)

// Validator checks a single sanitized proposal.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier, e.g. "non-empty", "distinct".
	Name() string

	// Validate returns nil if the proposal can be used. taken holds every
	// option already on the row, including proposals accepted so far.
	Validate(proposal string, taken []string, cfg Config) *ValidationError
}

// ValidationError describes why a proposal was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// NonEmptyValidator rejects proposals that sanitize to nothing.
type NonEmptyValidator struct{}

func (v *NonEmptyValidator) Name() string { return "non-empty" }

func (v *NonEmptyValidator) Validate(p string, _ []string, _ Config) *ValidationError {
	if strings.TrimSpace(p) == "" {
		return &ValidationError{Validator: v.Name(), Message: "proposal is empty"}
	}
	return nil
}

// PlaceholderValidator rejects values shaped like synthetic placeholders.
type PlaceholderValidator struct{}

func (v *PlaceholderValidator) Name() string { return "placeholder" }

func (v *PlaceholderValidator) Validate(p string, _ []string, cfg Config) *ValidationError {
	if cfg.PlaceholderPrefix == "" {
		return nil
	}
	re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(cfg.PlaceholderPrefix) + `\s*\d+$`)
	if re.MatchString(p) {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("%q looks like a placeholder", p)}
	}
	return nil
}

// DistinctValidator rejects proposals equal (ignoring case) to any option
// already taken.
type DistinctValidator struct{}

func (v *DistinctValidator) Name() string { return "distinct" }

func (v *DistinctValidator) Validate(p string, taken []string, _ Config) *ValidationError {
	for _, t := range taken {
		if csvimport.EqualFold(p, t) {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("%q duplicates an existing option", p)}
		}
	}
	return nil
}
