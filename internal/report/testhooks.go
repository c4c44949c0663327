package report

import (
	"io"
	"os"
)

func SetStderr(w io.Writer) (restore func()) {
	prev := stderrWriter
	if w != nil {
		stderrWriter = w
	} else {
		stderrWriter = os.Stderr
	}
	return func() { stderrWriter = prev }
}

func SetRemoveFileFn(fn func(string) error) (restore func()) {
	prev := removeFileFn
	if fn != nil {
		removeFileFn = fn
	} else {
		removeFileFn = os.Remove
	}
	return func() { removeFileFn = prev }
}
