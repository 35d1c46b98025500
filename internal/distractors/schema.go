package distractors

import "github.com/englishaidol/aidol/internal/llm"

// OptionsSchema defines the JSON schema for distractor proposals.
var OptionsSchema = &llm.Schema{
	Name:        "distractor-options",
	Description: "Plausible but wrong answer options for an English paraphrasing question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"options": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"minItems":    1,
				"maxItems":    6,
				"description": "Wrong answer options, most plausible first. Plain text, no numbering.",
			},
		},
		"required":             []any{"options"},
		"additionalProperties": false,
	},
}
