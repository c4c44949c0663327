//go:build !unix

package executor

import "os"

func sendTermSignal(proc processHandle) error {
	if proc == nil {
		return nil
	}
	return proc.Signal(os.Kill)
}

func signaledExitCode(error) (int, bool) { return 0, false }
