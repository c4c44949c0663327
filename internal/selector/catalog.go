package selector

import (
	"fmt"
	"os"
	"strings"
)

const (
	// TestPrefix starts every test file name.
	TestPrefix = "test-"
	// CheckPrefix marks tests that validate repo-wide invariants.
	CheckPrefix = "test-check"
	// LintOnlyCheck runs in the lint pipeline and is never selected here.
	LintOnlyCheck = "test-check-code-hg.t"
)

var testSuffixes = []string{".t", ".py"}

// WordSet is a set of word tokens.
type WordSet map[string]struct{}

// NewWordSet collects words into a set.
func NewWordSet(words ...string) WordSet {
	set := make(WordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func (s WordSet) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// ContainsAny reports whether any of words is in the set.
func (s WordSet) ContainsAny(words []string) bool {
	for _, w := range words {
		if s.Has(w) {
			return true
		}
	}
	return false
}

// CatalogEntry is one test file and the words of its name minus the "test"
// marker.
type CatalogEntry struct {
	Name  string
	Words WordSet
}

// IsTestName reports whether name follows the test file naming convention.
func IsTestName(name string) bool {
	if !strings.HasPrefix(name, TestPrefix) {
		return false
	}
	for _, suffix := range testSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// NewCatalogEntry tokenizes a test file name.
func NewCatalogEntry(name string) CatalogEntry {
	words := Words(name)
	if len(words) > 0 {
		words = words[1:]
	}
	return CatalogEntry{Name: name, Words: NewWordSet(words...)}
}

// LoadCatalog lists the tests in testDir in name order.
func LoadCatalog(testDir string) ([]CatalogEntry, error) {
	entries, err := os.ReadDir(testDir)
	if err != nil {
		return nil, fmt.Errorf("list tests in %s: %w", testDir, err)
	}

	catalog := make([]CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsTestName(entry.Name()) {
			continue
		}
		catalog = append(catalog, NewCatalogEntry(entry.Name()))
	}
	return catalog, nil
}
