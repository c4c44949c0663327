package utils

import "strings"

// SafeTruncate truncates s to at most maxLen runes, appending "..." when
// something was cut. It never splits a UTF-8 sequence.
func SafeTruncate(s string, maxLen int) string {
	if maxLen <= 0 || s == "" {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return string(runes[:1])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SanitizeOutput removes ANSI escape sequences and control characters.
func SanitizeOutput(s string) string {
	var result strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			inEscape = true
			i++
			continue
		}
		if inEscape {
			if (s[i] >= 'A' && s[i] <= 'Z') || (s[i] >= 'a' && s[i] <= 'z') {
				inEscape = false
			}
			continue
		}
		if s[i] >= 32 || s[i] == '\n' || s[i] == '\t' {
			result.WriteByte(s[i])
		}
	}
	return result.String()
}

// Plural returns word, or word+"s" unless n is exactly one.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
