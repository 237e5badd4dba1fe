package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, folds runs of whitespace and control
// characters into single spaces and caps the result at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	cleaned := strings.Join(fields, " ")
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			return strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}
