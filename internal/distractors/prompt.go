package distractors

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write answer options for English exam practice (IELTS, TOEFL, TOEIC, PTE).

Rules:
- The learner sees a word, phrase or sentence and must pick the option that paraphrases it.
- Propose wrong options (distractors) that look plausible to an intermediate learner: near-synonyms with the wrong nuance, false friends, words with the wrong register or collocation.
- Every distractor must be clearly wrong. Never propose a valid paraphrase.
- Match the part of speech and length of the correct answer.
- Do not repeat the correct answer or any existing option, even with different capitalization.
- Plain text only. No numbering, quotes or explanations.`

// buildUserMessage constructs the user message for one row.
func buildUserMessage(in Input, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question format: %s\n", in.Format)
	fmt.Fprintf(&b, "Prompt: %s\n", in.Content)
	fmt.Fprintf(&b, "Correct answer: %s\n", in.CorrectAnswer)

	b.WriteString("\nExisting wrong options:\n")
	b.WriteString(numbered(in.Existing))

	fmt.Fprintf(&b, "\n\nPropose %d distractors.", in.Count+cfg.ExtraProposals)
	return b.String()
}

// numbered formats a list for the prompt. Returns "None" for an empty list.
func numbered(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}
