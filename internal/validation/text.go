package validation

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// TruncateText shortens text to at most maxLen runes, ending in "..." when cut.
func TruncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen <= len(ellipsis) {
		return string([]rune(text)[:maxLen])
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLen-len(ellipsis)])) + ellipsis
}
