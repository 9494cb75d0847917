package ai

import "strings"

// cleanModelJSON strips Markdown fences and surrounding prose the model may
// emit despite instructions, keeping only the outermost JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If prose still surrounds the value, keep from the first brace to the
	// matching last brace.
	if start := strings.IndexAny(s, "{["); start != -1 {
		closer := "}"
		if s[start] == '[' {
			closer = "]"
		}
		if end := strings.LastIndex(s, closer); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
