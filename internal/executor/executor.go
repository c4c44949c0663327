// Package executor supervises the external test runner: it starts the
// runner with inherited stdio, absorbs a bounded number of interrupts while
// the runner shuts itself down, and reports the runner's exit code.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
)

// DefaultMaxInterrupts is used when RunSpec.MaxInterrupts is not set.
const DefaultMaxInterrupts = 3

// InterruptedExitCode is the conventional status for a run abandoned after SIGINT.
const InterruptedExitCode = 130

// ErrInterrupted is returned when the runner did not exit after the maximum
// number of interrupts and was abandoned.
var ErrInterrupted = errors.New("test runner interrupted")

type commandRunner interface {
	Start() error
	Wait() error
	Process() processHandle
}

type processHandle interface {
	Pid() int
	Signal(os.Signal) error
}

type realCmd struct {
	cmd *exec.Cmd
}

func (r *realCmd) Start() error { return r.cmd.Start() }

func (r *realCmd) Wait() error { return r.cmd.Wait() }

func (r *realCmd) Process() processHandle {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	return &realProcess{proc: r.cmd.Process}
}

type realProcess struct {
	proc *os.Process
}

func (p *realProcess) Pid() int { return p.proc.Pid }

func (p *realProcess) Signal(sig os.Signal) error { return p.proc.Signal(sig) }

var (
	newCommandRunner = newRealCommand

	// notifyInterruptsFn subscribes to interrupts for the lifetime of a run.
	notifyInterruptsFn = notifyInterrupts
)

func newRealCommand(spec RunSpec) commandRunner {
	// No CommandContext: cancellation goes through sendTermSignal so the
	// runner can clean up instead of being killed outright.
	cmd := exec.Command(spec.Command, spec.Args...) // #nosec G204 -- runner path comes from the user's configuration
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	return &realCmd{cmd: cmd}
}

func notifyInterrupts() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, DefaultMaxInterrupts)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}

// Run starts the runner described by spec and waits for it to exit.
//
// While the runner is alive, interrupts are not fatal to us: the runner
// receives the same interrupt from the terminal and is expected to wind down
// on its own. Once MaxInterrupts have been received the runner is sent
// SIGTERM and Run returns ErrInterrupted without waiting further. Cancelling
// ctx behaves the same way but returns ctx.Err().
func Run(ctx context.Context, spec RunSpec) (RunResult, error) {
	if strings.TrimSpace(spec.Command) == "" {
		return RunResult{}, errors.New("test runner command is empty")
	}
	if spec.Stdin == nil {
		spec.Stdin = os.Stdin
	}
	if spec.Stdout == nil {
		spec.Stdout = os.Stdout
	}
	if spec.Stderr == nil {
		spec.Stderr = os.Stderr
	}
	maxInterrupts := spec.MaxInterrupts
	if maxInterrupts <= 0 {
		maxInterrupts = DefaultMaxInterrupts
	}

	// Subscribe before starting so an early interrupt can't take us down
	// ahead of the runner.
	interrupts, stop := notifyInterruptsFn()
	defer stop()

	cmd := newCommandRunner(spec)
	if err := cmd.Start(); err != nil {
		return RunResult{}, fmt.Errorf("start test runner %s: %w", spec.Command, err)
	}

	result := RunResult{}
	if proc := cmd.Process(); proc != nil {
		result.PID = proc.Pid()
	}
	logInfo(fmt.Sprintf("Started test runner %s (pid %d) in %s with %d args", spec.Command, result.PID, spec.Dir, len(spec.Args)))

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	for {
		select {
		case waitErr := <-waitCh:
			code, err := exitCodeFromWait(waitErr)
			result.ExitCode = code
			if err != nil {
				return result, fmt.Errorf("wait for test runner: %w", err)
			}
			logInfo(fmt.Sprintf("Test runner exited with code %d", code))
			return result, nil

		case <-interrupts:
			result.Interrupts++
			if result.Interrupts >= maxInterrupts {
				fmt.Fprintln(spec.Stderr, "Warning: test runner has not exited after multiple interrupts.  Giving up on it and quitting anyway.")
				abandon(cmd, "interrupt limit reached")
				result.ExitCode = InterruptedExitCode
				return result, ErrInterrupted
			}
			fmt.Fprintf(spec.Stderr, "Interrupt received (%d of %d), waiting for the test runner to exit\n", result.Interrupts, maxInterrupts)
			logWarn(fmt.Sprintf("Interrupt %d of %d while test runner is running", result.Interrupts, maxInterrupts))

		case <-ctx.Done():
			abandon(cmd, ctx.Err().Error())
			result.ExitCode = InterruptedExitCode
			return result, ctx.Err()
		}
	}
}

func abandon(cmd commandRunner, reason string) {
	logWarn(fmt.Sprintf("Abandoning test runner: %s", reason))
	if err := sendTermSignal(cmd.Process()); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logWarn(fmt.Sprintf("Failed to signal test runner: %v", err))
	}
}

type exitCoder interface {
	ExitCode() int
}

// exitCodeFromWait maps a Wait result to a status code. Only failures that
// are not plain non-zero exits are returned as errors.
func exitCodeFromWait(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if code, ok := signaledExitCode(err); ok {
		return code, nil
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		if code := ec.ExitCode(); code >= 0 {
			return code, nil
		}
	}
	return 1, err
}

