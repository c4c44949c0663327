package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Logs whose owner can't be identified are kept unless they are older than this.
const orphanLogMaxAge = 7 * 24 * time.Hour

var (
	processRunningCheck = isProcessRunning
	processStartTimeFn  = getProcessStartTime
	removeLogFileFn     = os.Remove
	globLogFiles        = filepath.Glob
	fileStatFn          = os.Lstat
	evalSymlinksFn      = filepath.EvalSymlinks
)

// CleanupStats summarizes a stale log sweep.
type CleanupStats struct {
	Scanned      int
	Deleted      int
	Kept         int
	Errors       int
	DeletedFiles []string
	KeptFiles    []string
}

// CleanupOldLogs removes log files left behind by processes that are no
// longer running.
func CleanupOldLogs() (CleanupStats, error) { return cleanupOldLogs() }

func cleanupOldLogs() (CleanupStats, error) {
	var stats CleanupStats
	tempDir := os.TempDir()

	var paths []string
	for _, prefix := range LogPrefixes() {
		matches, err := globLogFiles(filepath.Join(tempDir, prefix+"-*.log"))
		if err != nil {
			return stats, fmt.Errorf("glob %s logs: %w", prefix, err)
		}
		paths = append(paths, matches...)
	}

	var errs []error
	for _, path := range paths {
		stats.Scanned++

		pid, ok := parsePIDFromLog(path)
		if !ok {
			stats.keep(path)
			continue
		}
		if unsafe, reason := isUnsafeFile(path, tempDir); unsafe {
			logWarn(fmt.Sprintf("Skipping log %s: %s", path, reason))
			stats.keep(path)
			continue
		}
		if processRunningCheck(pid) && !isPIDReused(path, pid) {
			stats.keep(path)
			continue
		}

		if err := removeLogFileFn(path); err != nil {
			stats.Errors++
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		stats.Deleted++
		stats.DeletedFiles = append(stats.DeletedFiles, path)
	}

	return stats, errors.Join(errs...)
}

func (s *CleanupStats) keep(path string) {
	s.Kept++
	s.KeptFiles = append(s.KeptFiles, path)
}

// parsePIDFromLog extracts the pid from "<prefix>-<pid>[-suffix].log".
func parsePIDFromLog(path string) (int, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".log") {
		return 0, false
	}
	base = strings.TrimSuffix(base, ".log")

	for _, prefix := range LogPrefixes() {
		rest, found := strings.CutPrefix(base, prefix+"-")
		if !found {
			continue
		}
		digits, _, _ := strings.Cut(rest, "-")
		if digits == "" {
			return 0, false
		}
		pid, err := strconv.Atoi(digits)
		if err != nil || pid <= 0 {
			return 0, false
		}
		return pid, true
	}
	return 0, false
}

// isPIDReused reports whether the process holding pid started after the log
// was last written, meaning the original owner is gone.
func isPIDReused(path string, pid int) bool {
	info, err := fileStatFn(path)
	if err != nil {
		return false
	}
	start := processStartTimeFn(pid)
	if start.IsZero() {
		return time.Since(info.ModTime()) > orphanLogMaxAge
	}
	return start.After(info.ModTime())
}

// isUnsafeFile rejects symlinks and anything that resolves outside tempDir.
func isUnsafeFile(path string, tempDir string) (bool, string) {
	info, err := fileStatFn(path)
	if err != nil {
		return true, fmt.Sprintf("cannot stat file: %v", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true, "refusing to delete symlink"
	}

	resolved, err := evalSymlinksFn(path)
	if err != nil {
		return true, fmt.Sprintf("cannot resolve path: %v", err)
	}

	base, err := filepath.Abs(tempDir)
	if err != nil {
		return true, "cannot resolve tempDir"
	}
	if eval, err := filepath.EvalSymlinks(base); err == nil {
		base = eval
	}

	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(resolved))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return true, "file is outside tempDir"
	}
	return false, ""
}
