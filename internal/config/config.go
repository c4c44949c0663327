package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
)

const (
	// TestDirName is the repository-relative directory holding the tests and
	// the runner's report file.
	TestDirName = "tests"

	DefaultMaxInterrupts = 3
	maxInterruptsLimit   = 100
	maxJobsLimit         = 1024
)

// Config holds the resolved settings for one invocation.
type Config struct {
	RepoRoot      string
	TestDir       string
	VCS           string
	Rev           string
	Runner        string
	Jobs          int
	MaxInterrupts int
	OutputPath    string
	ListOnly      bool
}

// Validate checks the fields that can come from user input.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.RepoRoot) == "" {
		return fmt.Errorf("repository root is empty")
	}
	if c.Jobs < 0 || c.Jobs > maxJobsLimit {
		return fmt.Errorf("jobs must be between 0 and %d, got %d", maxJobsLimit, c.Jobs)
	}
	if c.MaxInterrupts < 1 || c.MaxInterrupts > maxInterruptsLimit {
		return fmt.Errorf("max-interrupts must be between 1 and %d, got %d", maxInterruptsLimit, c.MaxInterrupts)
	}
	if c.OutputPath == "-" {
		return fmt.Errorf("invalid output path: '-' is not a valid file path")
	}
	return nil
}

var cpuCountFn = func() (int, error) { return cpu.Counts(true) }

// ResolveJobs returns explicit when positive, otherwise the number of logical
// CPUs.
func ResolveJobs(explicit int) int {
	if explicit > 0 {
		return explicit
	}
	n, err := cpuCountFn()
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// EnvFlagEnabled returns true when the environment variable exists and is not
// explicitly set to a falsey value ("0/false/no/off").
func EnvFlagEnabled(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return ParseBoolFlag(val, strings.TrimSpace(val) != "")
}

// ParseBoolFlag reads common spellings of a boolean, returning defaultValue
// for anything else.
func ParseBoolFlag(val string, defaultValue bool) bool {
	val = strings.TrimSpace(strings.ToLower(val))
	switch val {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
