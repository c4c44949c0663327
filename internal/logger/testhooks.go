package logger

import (
	"os"
	"path/filepath"
	"time"
)

// swapHook installs fn (or def when fn is nil) into *dst and returns a func
// that restores the previous value.
func swapHook[T any](dst *T, fn T, isNil bool, def T) (restore func()) {
	prev := *dst
	if isNil {
		*dst = def
	} else {
		*dst = fn
	}
	return func() { *dst = prev }
}

func SetProcessRunningCheck(fn func(int) bool) (restore func()) {
	return swapHook(&processRunningCheck, fn, fn == nil, isProcessRunning)
}

func SetProcessStartTimeFn(fn func(int) time.Time) (restore func()) {
	return swapHook(&processStartTimeFn, fn, fn == nil, getProcessStartTime)
}

func SetRemoveLogFileFn(fn func(string) error) (restore func()) {
	return swapHook(&removeLogFileFn, fn, fn == nil, os.Remove)
}

func SetGlobLogFilesFn(fn func(string) ([]string, error)) (restore func()) {
	return swapHook(&globLogFiles, fn, fn == nil, filepath.Glob)
}

func SetFileStatFn(fn func(string) (os.FileInfo, error)) (restore func()) {
	return swapHook(&fileStatFn, fn, fn == nil, os.Lstat)
}

func SetEvalSymlinksFn(fn func(string) (string, error)) (restore func()) {
	return swapHook(&evalSymlinksFn, fn, fn == nil, filepath.EvalSymlinks)
}
