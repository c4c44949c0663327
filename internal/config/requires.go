package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RequirementLZ4Revlog marks repositories whose revlogs need the lz4revlog
// extension loaded in the runner.
const RequirementLZ4Revlog = "lz4revlog"

// RequiresPath is the capability marker file of the repository at root.
func RequiresPath(root string) string {
	return filepath.Join(root, ".hg", "requires")
}

// ReadRequires returns the requirement tokens of the repository at root, one
// per line. A missing file means no requirements.
func ReadRequires(root string) ([]string, error) {
	f, err := os.Open(RequiresPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read requires: %w", err)
	}
	defer f.Close()

	var requires []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		requires = append(requires, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read requires: %w", err)
	}
	return requires, nil
}

// HasRequirement reports whether name is listed in requires.
func HasRequirement(requires []string, name string) bool {
	for _, r := range requires {
		if r == name {
			return true
		}
	}
	return false
}
