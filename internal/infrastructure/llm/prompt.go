package llm

import (
	"fmt"
	"strings"
)

const defaultSystemPrompt = "You condense news items and research abstracts for a spoken daily briefing. Reply with plain prose only."

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

func summaryInstruction(text string, maxLength, minLength int) string {
	return fmt.Sprintf(
		"Summarize the following text in %d to %d characters. Do not add a preamble.\n\n%s",
		minLength, maxLength, text)
}
