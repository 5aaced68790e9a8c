package ai

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of a model response that may be
// wrapped in markdown fencing or surrounded by prose. It returns the
// substring from the first opening brace to its matching last closing
// brace.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty response")
	}

	// Strip ``` fences, with or without a language tag.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("response contains no JSON object")
	}
	return s[start : end+1], nil
}
