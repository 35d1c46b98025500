package csvimport

import "fmt"

// PlaceholderPolicy decides what happens to a paraphrasing row that has
// fewer than four distinct options.
type PlaceholderPolicy string

const (
	// PolicyPad fills the gap with "Distractor N" values and warns.
	PolicyPad PlaceholderPolicy = "pad"

	// PolicyReject sends the row to errors instead.
	PolicyReject PlaceholderPolicy = "reject"
)

// Config controls normalization.
type Config struct {
	// MaxFieldLength is the rune budget for every sanitized field.
	MaxFieldLength int

	// Delimiter forces the field delimiter. Zero means detect it from
	// the header line.
	Delimiter rune

	// PlaceholderPolicy applies to the paraphrasing variant only.
	PlaceholderPolicy PlaceholderPolicy

	// PlaceholderPrefix names synthetic distractors ("Distractor 1", ...).
	PlaceholderPrefix string

	// ScrambleInstruction is the prompt used when a scramble row has no content.
	ScrambleInstruction string
}

// DefaultConfig returns the standard import settings.
func DefaultConfig() Config {
	return Config{
		MaxFieldLength:      DefaultMaxFieldLength,
		PlaceholderPolicy:   PolicyPad,
		PlaceholderPrefix:   "Distractor",
		ScrambleInstruction: "Arrange the words to form a correct sentence.",
	}
}

// Validate checks that enum-like settings hold known values.
func (c Config) Validate() error {
	switch c.PlaceholderPolicy {
	case PolicyPad, PolicyReject:
	default:
		return fmt.Errorf("unknown placeholder policy: %q", c.PlaceholderPolicy)
	}
	switch c.Delimiter {
	case 0, ',', ';', '\t':
	default:
		return fmt.Errorf("unsupported delimiter: %q", c.Delimiter)
	}
	return nil
}

// ParseDelimiter converts a config string to a delimiter rune. The empty
// string and "auto" select detection.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %q", s)
}
