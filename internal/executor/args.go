package executor

import (
	"fmt"
	"os"
	"strings"

	config "sapling-unit/internal/config"
)

const pythonPathEnv = "PYTHONPATH"

// BuildArgs returns the runner arguments: parallelism, list-style and JSON
// reporting, repository-specific extensions, then the tests. No tests means
// no trailing arguments.
func BuildArgs(jobs int, requires []string, tests []string) []string {
	if jobs <= 0 {
		jobs = 1
	}
	args := []string{fmt.Sprintf("-j%d", jobs), "-l", "--json"}
	if config.HasRequirement(requires, config.RequirementLZ4Revlog) {
		args = append(args, "--extra-config-opt=extensions.lz4revlog=")
	}
	return append(args, tests...)
}

// BuildEnv returns a copy of base with repoRoot prepended to PYTHONPATH, so
// the runner imports code from the repository before any installed copy.
// base itself is not modified.
func BuildEnv(base []string, repoRoot string) []string {
	env := make([]string, 0, len(base)+1)
	existing := ""
	for _, kv := range base {
		if value, ok := strings.CutPrefix(kv, pythonPathEnv+"="); ok {
			existing = value
			continue
		}
		env = append(env, kv)
	}

	value := repoRoot
	if existing != "" {
		value += string(os.PathListSeparator) + existing
	}
	return append(env, pythonPathEnv+"="+value)
}

// BuildRunSpec assembles the runner invocation for cfg.
func BuildRunSpec(cfg *config.Config, runner string, requires []string, tests []string) RunSpec {
	return RunSpec{
		Command:       runner,
		Args:          BuildArgs(cfg.Jobs, requires, tests),
		Dir:           cfg.TestDir,
		Env:           BuildEnv(os.Environ(), cfg.RepoRoot),
		MaxInterrupts: cfg.MaxInterrupts,
	}
}
