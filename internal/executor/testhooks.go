package executor

import "os"

type CommandRunner = commandRunner
type ProcessHandle = processHandle

func SetNewCommandRunner(fn func(RunSpec) CommandRunner) (restore func()) {
	prev := newCommandRunner
	if fn != nil {
		newCommandRunner = fn
	} else {
		newCommandRunner = newRealCommand
	}
	return func() { newCommandRunner = prev }
}

// SetNotifyInterruptsFn replaces the interrupt subscription, letting tests
// deliver interrupts without signalling the test binary.
func SetNotifyInterruptsFn(fn func() (<-chan os.Signal, func())) (restore func()) {
	prev := notifyInterruptsFn
	if fn != nil {
		notifyInterruptsFn = fn
	} else {
		notifyInterruptsFn = notifyInterrupts
	}
	return func() { notifyInterruptsFn = prev }
}
