// Package vcs asks the version-control system which files a revision touches.
package vcs

// Backend defines the contract for querying a version-control CLI. Each
// backend supplies the executable and the argument lists; running them is
// shared in query.go.
type Backend interface {
	Name() string
	Command() string
	// DefaultRev selects the working changes plus their parent.
	DefaultRev() string
	ChangedFilesArgs(rev string) []string
	RootArgs() []string
	ParseChangedFiles(out []byte) []string
}

var (
	logInfoFn = func(string) {}
	logWarnFn = func(string) {}
)

// SetLogFuncs configures optional logging hooks. Callers can safely pass nil
// to disable a hook.
func SetLogFuncs(infoFn, warnFn func(string)) {
	if infoFn != nil {
		logInfoFn = infoFn
	} else {
		logInfoFn = func(string) {}
	}
	if warnFn != nil {
		logWarnFn = warnFn
	} else {
		logWarnFn = func(string) {}
	}
}
