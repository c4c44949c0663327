package executor

import "io"

// RunSpec is one invocation of the external test runner.
type RunSpec struct {
	Command string
	Args    []string
	// Dir is the runner's working directory (the test directory).
	Dir string
	// Env is the complete child environment; nil inherits ours unchanged.
	Env []string
	// MaxInterrupts is how many interrupts are absorbed before giving up on
	// the runner. Zero means DefaultMaxInterrupts.
	MaxInterrupts int

	// Standard streams default to ours so the runner's output reaches the
	// terminal untouched.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult is what came back from the runner.
type RunResult struct {
	ExitCode   int
	PID        int
	Interrupts int
}
