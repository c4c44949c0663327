package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"sapling-unit/internal/utils"
)

const stderrTailLimit = 4 * 1024

// CommandError reports a VCS command that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%q exits with %d", e.Args, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + utils.SafeTruncate(stderr, 200)
	}
	return msg
}

var commandOutputFn = runCommand

// runCommand runs name in dir and returns its stdout. stderr is kept only for
// the error message.
func runCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &CommandError{
			Args:     append([]string{name}, args...),
			ExitCode: exitErr.ExitCode(),
			Stderr:   utils.SanitizeOutput(stderr.String()),
		}
	}
	return nil, fmt.Errorf("run %s: %w", name, err)
}

// ChangedFiles returns the paths, relative to root, touched by rev. An empty
// rev means the backend's default. Order is whatever the VCS prints and
// duplicates are possible.
func ChangedFiles(ctx context.Context, b Backend, root, rev string) ([]string, error) {
	if strings.TrimSpace(rev) == "" {
		rev = b.DefaultRev()
	}
	args := b.ChangedFilesArgs(rev)
	logInfoFn(fmt.Sprintf("Querying changed files: %s %s", b.Command(), strings.Join(args, " ")))

	out, err := commandOutputFn(ctx, root, b.Command(), args...)
	if err != nil {
		return nil, fmt.Errorf("list changed files: %w", err)
	}
	files := b.ParseChangedFiles(out)
	logInfoFn(fmt.Sprintf("%d changed file(s) in %q", len(files), rev))
	return files, nil
}

// Root asks the VCS for the root of the repository containing dir.
func Root(ctx context.Context, b Backend, dir string) (string, error) {
	out, err := commandOutputFn(ctx, dir, b.Command(), b.RootArgs()...)
	if err != nil {
		return "", fmt.Errorf("find repository root: %w", err)
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		logWarnFn(fmt.Sprintf("%s printed an empty repository root", b.Command()))
		return "", fmt.Errorf("find repository root: %s printed nothing", b.Command())
	}
	return root, nil
}

// SetCommandOutputFn replaces the command runner. Passing nil restores the
// default.
func SetCommandOutputFn(fn func(ctx context.Context, dir, name string, args ...string) ([]byte, error)) (restore func()) {
	prev := commandOutputFn
	if fn != nil {
		commandOutputFn = fn
	} else {
		commandOutputFn = runCommand
	}
	return func() { commandOutputFn = prev }
}
