package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// RunnerEnv overrides the path of the external test runner.
	RunnerEnv = "MERCURIALRUNTEST"

	defaultRunnerName = "run-tests.py"
)

var (
	runnerCheckoutPrefixes = []string{".."}
	runnerCheckoutNames    = []string{"hg", "hg-crew", "hg-committed"}

	userHomeDirFn = os.UserHomeDir
	fileExistsFn  = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
)

// FindRunner locates the external test runner. An explicit path (flag or
// config file) is used as given. Otherwise the candidates are tried in order
// and the first existing path wins:
//
//  1. $MERCURIALRUNTEST, default "run-tests.py", relative to the working dir
//  2. {..,$HOME}/{hg,hg-crew,hg-committed}/tests/run-tests.py
//
// When nothing exists the bare runner name is returned so exec can resolve it
// through PATH.
func FindRunner(explicit string) string {
	runner := strings.TrimSpace(os.Getenv(RunnerEnv))
	if runner == "" {
		runner = defaultRunnerName
	}

	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return absIfExists(explicit)
	}

	candidates := append([]string{runner}, runnerCheckoutCandidates()...)
	for _, candidate := range candidates {
		if fileExistsFn(candidate) {
			return absIfExists(candidate)
		}
	}
	return runner
}

func absIfExists(path string) string {
	if !fileExistsFn(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func runnerCheckoutCandidates() []string {
	prefixes := append([]string(nil), runnerCheckoutPrefixes...)
	if home, err := userHomeDirFn(); err == nil && strings.TrimSpace(home) != "" {
		prefixes = append(prefixes, home)
	}

	var out []string
	for _, prefix := range prefixes {
		for _, name := range runnerCheckoutNames {
			path, err := filepath.Abs(filepath.Join(prefix, name, TestDirName, defaultRunnerName))
			if err != nil {
				continue
			}
			out = append(out, path)
		}
	}
	return out
}
