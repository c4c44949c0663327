package selector

import (
	"path"
	"sort"
	"strings"
)

// TestSet is the set of selected test names. It only grows.
type TestSet map[string]struct{}

func (s TestSet) Add(name string) { s[name] = struct{}{} }

func (s TestSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s TestSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interesting returns the tests relevant to the changed paths.
//
// Check tests are always included, except LintOnlyCheck. A changed path that
// is itself a test under testDirName selects only that test. Any other path
// selects every test sharing at least one word with it, so changing sparse.py
// selects test-remotefilelog-sparse.t.
func Interesting(catalog []CatalogEntry, changed []string, testDirName string) TestSet {
	result := make(TestSet)
	for _, entry := range catalog {
		if strings.HasPrefix(entry.Name, CheckPrefix) && entry.Name != LintOnlyCheck {
			result.Add(entry.Name)
		}
	}

	testPathPrefix := strings.TrimSuffix(testDirName, "/") + "/" + TestPrefix
	for _, p := range changed {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, testPathPrefix) {
			result.Add(path.Base(p))
			continue
		}

		words := Words(p)
		for _, entry := range catalog {
			if entry.Words.ContainsAny(words) {
				result.Add(entry.Name)
			}
		}
	}
	return result
}
