package utils

import (
	"strings"
)

// SanitizeJSON cleans raw AI output to extract valid JSON
// It removes Markdown code blocks (```json ... ```) and whitespace
func SanitizeJSON(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}

	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	return strings.TrimSpace(cleaned)
}

// ExtractJSONObject returns the outermost {...} of s, or "" when there is none.
// Models like to wrap the object in prose.
func ExtractJSONObject(s string) string {
	s = SanitizeJSON(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
