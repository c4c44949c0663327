package logger

import "sync/atomic"

// current is the process-wide logger behind the Log* helpers. Logging is a
// no-op while it is nil.
var current atomic.Pointer[Logger]

func setLogger(l *Logger) { current.Store(l) }

func closeLogger() error {
	if l := current.Swap(nil); l != nil {
		return l.Close()
	}
	return nil
}

func activeLogger() *Logger { return current.Load() }

func logTo(write func(*Logger, string), msg string) {
	if l := current.Load(); l != nil {
		write(l, msg)
	}
}

func logWarn(msg string) { logTo((*Logger).Warn, msg) }

// SetLogger installs l as the process-wide logger.
func SetLogger(l *Logger) { setLogger(l) }

// CloseLogger detaches and closes the process-wide logger.
func CloseLogger() error { return closeLogger() }

func ActiveLogger() *Logger { return activeLogger() }

func LogDebug(msg string) { logTo((*Logger).Debug, msg) }

func LogInfo(msg string) { logTo((*Logger).Info, msg) }

func LogWarn(msg string) { logWarn(msg) }

func LogError(msg string) { logTo((*Logger).Error, msg) }
