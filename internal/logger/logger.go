package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	logBufferSize   = 32 * 1024
	maxErrorEntries = 100
	maxSuffixLen    = 64
)

// Logger writes JSON lines to a per-process file under the temp dir and keeps
// the most recent warnings and errors in memory for the exit summary.
type Logger struct {
	path string
	file *os.File
	zl   zerolog.Logger

	mu     sync.Mutex
	writer *bufio.Writer
	closed atomic.Bool
	once   sync.Once

	errMu        sync.Mutex
	errorEntries []string
}

// lockedWriter serializes zerolog's single-call event writes into the buffer.
type lockedWriter struct {
	l *Logger
}

func (w lockedWriter) Write(p []byte) (int, error) {
	if w.l.closed.Load() {
		return len(p), nil
	}
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.writer.Write(p)
}

// NewLogger creates $TMPDIR/sapling-unit-<pid>.log.
func NewLogger() (*Logger, error) {
	return NewLoggerWithSuffix("")
}

// NewLoggerWithSuffix creates $TMPDIR/sapling-unit-<pid>-<suffix>.log.
func NewLoggerWithSuffix(suffix string) (*Logger, error) {
	name := fmt.Sprintf("%s-%d", PrimaryLogPrefix(), os.Getpid())
	if strings.TrimSpace(suffix) != "" {
		name += "-" + sanitizeLogSuffix(suffix)
	}
	path := filepath.Join(os.TempDir(), name+".log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- path is built from the temp dir and a sanitized suffix
	if err != nil {
		return nil, fmt.Errorf("create log file %s: %w", path, err)
	}

	l := &Logger{
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, logBufferSize),
	}
	l.zl = zerolog.New(lockedWriter{l: l}).With().Timestamp().Int("pid", os.Getpid()).Logger()
	return l, nil
}

// Path returns the log file path, or "" for a nil logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Debug(msg string) { l.log(zerolog.DebugLevel, msg) }

func (l *Logger) Info(msg string) { l.log(zerolog.InfoLevel, msg) }

func (l *Logger) Warn(msg string) { l.log(zerolog.WarnLevel, msg) }

func (l *Logger) Error(msg string) { l.log(zerolog.ErrorLevel, msg) }

func (l *Logger) log(level zerolog.Level, msg string) {
	if l == nil || l.file == nil || l.closed.Load() {
		return
	}
	l.zl.WithLevel(level).Msg(msg)

	if level >= zerolog.WarnLevel {
		l.errMu.Lock()
		l.errorEntries = append(l.errorEntries, msg)
		if over := len(l.errorEntries) - maxErrorEntries; over > 0 {
			l.errorEntries = append(l.errorEntries[:0], l.errorEntries[over:]...)
		}
		l.errMu.Unlock()
	}
}

// Flush pushes buffered entries to the file.
func (l *Logger) Flush() {
	if l == nil || l.writer == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.writer.Flush()
}

// Close flushes and closes the log file. The file itself is kept so it can be
// inspected; RemoveLogFile deletes it.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	var err error
	l.once.Do(func() {
		l.Flush()
		l.closed.Store(true)
		l.mu.Lock()
		err = l.file.Close()
		l.mu.Unlock()
	})
	return err
}

// RemoveLogFile deletes the log file. A missing file is not an error.
func (l *Logger) RemoveLogFile() error {
	if l == nil || l.path == "" {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ExtractRecentErrors returns up to maxEntries of the latest warning and error
// messages, oldest first.
func (l *Logger) ExtractRecentErrors(maxEntries int) []string {
	if l == nil || maxEntries <= 0 {
		return nil
	}
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if len(l.errorEntries) == 0 {
		return nil
	}
	start := len(l.errorEntries) - maxEntries
	if start < 0 {
		start = 0
	}
	out := make([]string, len(l.errorEntries)-start)
	copy(out, l.errorEntries[start:])
	return out
}

// sanitizeLogSuffix maps raw into a file-name-safe suffix. Distinct inputs made
// only of safe characters stay distinct.
func sanitizeLogSuffix(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxSuffixLen {
			break
		}
	}
	if b.Len() == 0 {
		return "log"
	}
	return b.String()
}

func SanitizeLogSuffix(raw string) string { return sanitizeLogSuffix(raw) }
