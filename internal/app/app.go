// Package app wires the sapling-unit command: it picks the tests relevant to
// the current change, hands them to the external runner and writes the
// normalized report.
package app

import (
	"fmt"
	"os"
	"sync"

	ilogger "sapling-unit/internal/logger"
	"sapling-unit/internal/vcs"
)

var version = "dev"

var exitFn = os.Exit

// Run is the program entrypoint for cmd/sapling-unit/main.go.
func Run() {
	exitFn(run())
}

func currentToolName() string { return ilogger.CurrentToolName() }

func init() {
	vcs.SetLogFuncs(logInfo, logWarn)
}

var (
	cleanupLogsFn = cleanupOldLogs

	startupCleanupWG sync.WaitGroup
)

func runCleanupMode() int {
	stats, err := cleanupLogsFn()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cleanup failed: %v\n", err)
		return 1
	}

	fmt.Println("Cleanup completed")
	fmt.Printf("Files scanned: %d\n", stats.Scanned)
	fmt.Printf("Files deleted: %d\n", stats.Deleted)
	for _, path := range stats.DeletedFiles {
		fmt.Printf("  - %s\n", path)
	}
	fmt.Printf("Files kept: %d\n", stats.Kept)
	if stats.Errors > 0 {
		fmt.Printf("Deletion errors: %d\n", stats.Errors)
	}
	return 0
}

// scheduleStartupCleanup sweeps logs left by earlier runs in the background so
// it never delays the test run.
func scheduleStartupCleanup() {
	if cleanupLogsFn == nil {
		return
	}
	startupCleanupWG.Add(1)
	go func() {
		defer startupCleanupWG.Done()
		stats, err := cleanupLogsFn()
		if err != nil {
			logWarn(fmt.Sprintf("Startup log cleanup: %v", err))
			return
		}
		if stats.Deleted > 0 {
			logInfo(fmt.Sprintf("Startup log cleanup removed %d stale log(s)", stats.Deleted))
		}
	}()
}

// runCleanupHook waits for the startup sweep so its messages reach the log
// before it is closed.
func runCleanupHook() {
	startupCleanupWG.Wait()
}
