package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims the input, drops control characters and caps it at
// maxLen runes.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	trimmed := strings.TrimSpace(cleaned)
	if maxLen > 0 {
		if runes := []rune(trimmed); len(runes) > maxLen {
			return strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return trimmed
}

// SanitizeLine is SanitizeString for single-line fields: newlines and tabs
// collapse to spaces.
func SanitizeLine(input string, maxLen int) string {
	return SanitizeString(strings.Join(strings.Fields(input), " "), maxLen)
}
