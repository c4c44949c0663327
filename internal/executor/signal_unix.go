//go:build unix

package executor

import (
	"errors"
	"os/exec"
	"syscall"
)

// sendTermSignal asks the runner to shut down.
func sendTermSignal(proc processHandle) error {
	if proc == nil {
		return nil
	}
	return proc.Signal(syscall.SIGTERM)
}

// signaledExitCode follows the shell convention of 128+signal for a runner
// killed by a signal.
func signaledExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ProcessState == nil {
		return 0, false
	}
	status, ok := exitErr.ProcessState.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return 0, false
	}
	return 128 + int(status.Signal()), true
}
