// Package selector decides which tests are worth running for a change by
// matching words in changed file paths against words in test names.
package selector

import (
	"regexp"
	"strings"
)

var nonWordRun = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Words strips the extension from path and splits the rest into word tokens.
// For example "a/b-c.txt" becomes ["a", "b", "c"]. Case is preserved.
func Words(path string) []string {
	parts := nonWordRun.Split(stripExt(path), -1)
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

// stripExt removes the extension of the last path element. Leading dots of
// that element don't start an extension, so ".hgignore" is kept whole.
func stripExt(path string) string {
	base := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		base = path[i+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || strings.Trim(base[:dot], ".") == "" {
		return path
	}
	return path[:len(path)-len(base)+dot]
}
