package ai

import (
	"encoding/json"
	"strings"
)

// extractText pulls generated text out of the common response shapes and
// falls back to the raw body.
func extractText(body []byte) string {
	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		for _, candidate := range []string{resp.Summary, resp.Content, resp.Text} {
			if s := strings.TrimSpace(candidate); s != "" {
				return stripReasoning(s)
			}
		}
		if len(resp.Choices) > 0 {
			if s := strings.TrimSpace(resp.Choices[0].Message.Content); s != "" {
				return stripReasoning(s)
			}
		}
	}
	return strings.TrimSpace(string(body))
}

// stripReasoning drops a leading reasoning block some models emit before the
// answer.
func stripReasoning(text string) string {
	for _, tag := range []string{"think", "reasoning"} {
		open, closing := "<"+tag+">", "</"+tag+">"
		start := strings.Index(text, open)
		end := strings.Index(text, closing)
		if start >= 0 && end > start {
			text = strings.TrimSpace(text[:start] + text[end+len(closing):])
		}
	}
	return text
}
