package logger

import (
	"errors"
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

func pidToInt32(pid int) (int32, bool) {
	if pid <= 0 || pid > math.MaxInt32 {
		return 0, false
	}
	return int32(pid), true
}

// isProcessRunning reports whether pid appears to be alive. Inspection errors
// other than "not running" count as alive so a live run never loses its log.
func isProcessRunning(pid int) bool {
	pid32, ok := pidToInt32(pid)
	if !ok {
		return false
	}

	exists, err := process.PidExists(pid32)
	switch {
	case err == nil:
		return exists
	case errors.Is(err, process.ErrorProcessNotRunning):
		return false
	default:
		return true
	}
}

// getProcessStartTime returns the start time of pid, or the zero time when it
// can't be determined.
func getProcessStartTime(pid int) time.Time {
	pid32, ok := pidToInt32(pid)
	if !ok {
		return time.Time{}
	}
	proc, err := process.NewProcess(pid32)
	if err != nil {
		return time.Time{}
	}
	ms, err := proc.CreateTime()
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
