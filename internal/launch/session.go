package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

// State represents the child process lifecycle state.
type State string

const (
	StateStarting  State = "starting"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Event records one lifecycle state change.
type Event struct {
	State     State     `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  int       `json:"exit_code,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Session runs the app interpreter once, synchronously, relaying the
// terminal to the child. The child is deliberately spawned in the same
// console group, so Ctrl+C reaches it directly and the session just
// waits for it to exit.
type Session struct {
	// Interpreter is the fully qualified Python executable
	Interpreter string
	// EntryPoint is the absolute path of the script to run
	EntryPoint string
	// Dir is the child's working directory, the launcher home
	Dir string
	// Env is the complete child environment
	Env []string

	// Stdout/Stderr default to the launcher's own streams
	Stdout io.Writer
	Stderr io.Writer
	// OnLine receives each completed child output line
	OnLine func(string)
	// OnStart receives the child's PID once it is running
	OnStart func(pid int)

	pid      int
	start    time.Time
	duration time.Duration
	exitCode int
	events   []Event
}

// Run starts the child and blocks until it exits. The returned code is
// the child's own exit code; err is non-nil only when the child could
// not be started or waited on.
func (s *Session) Run(ctx context.Context) (int, error) {
	stdout := s.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := s.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cmd := exec.CommandContext(ctx, s.Interpreter, s.EntryPoint)
	cmd.Dir = s.Dir
	cmd.Env = s.Env
	cmd.Stdin = os.Stdin

	outRelay := NewOutputRelay(stdout, s.OnLine)
	errRelay := NewOutputRelay(stderr, s.OnLine)
	cmd.Stdout = outRelay
	cmd.Stderr = errRelay

	s.start = time.Now()
	s.emit(StateStarting, fmt.Sprintf("starting %s %s", s.Interpreter, s.EntryPoint))

	if err := cmd.Start(); err != nil {
		s.duration = time.Since(s.start)
		s.emit(StateFailed, fmt.Sprintf("failed to start: %v", err))
		return 0, fmt.Errorf("failed to start app process: %w", err)
	}

	s.pid = cmd.Process.Pid
	s.emit(StateRunning, fmt.Sprintf("PID %d started", s.pid))
	if s.OnStart != nil {
		s.OnStart(s.pid)
	}

	stopRelay := relaySignals(cmd)
	defer stopRelay()

	err := cmd.Wait()
	s.duration = time.Since(s.start)
	outRelay.Flush()
	errRelay.Flush()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				// Shell convention for signal deaths
				code = 128 + int(ws.Signal())
				s.exitCode = code
				s.emit(StateFailed, fmt.Sprintf("terminated by signal %v", ws.Signal()))
				return code, nil
			}
			s.exitCode = code
			s.emit(StateFailed, fmt.Sprintf("exited with code %d", code))
			return code, nil
		}

		s.emit(StateFailed, fmt.Sprintf("wait error: %v", err))
		return 0, fmt.Errorf("failed waiting for app process: %w", err)
	}

	s.exitCode = 0
	s.emit(StateCompleted, "exited cleanly")
	return 0, nil
}

// PID returns the child's process id, 0 before a successful start.
func (s *Session) PID() int {
	return s.pid
}

// Duration returns the child's runtime once it has exited.
func (s *Session) Duration() time.Duration {
	return s.duration
}

// Events returns the lifecycle events recorded so far.
func (s *Session) Events() []Event {
	return s.events
}

func (s *Session) emit(state State, message string) {
	s.events = append(s.events, Event{
		State:     state,
		Timestamp: time.Now(),
		PID:       s.pid,
		ExitCode:  s.exitCode,
		Message:   message,
	})
}

// relaySignals keeps the launcher alive through Ctrl+C so it can report
// the child's exit code. On Windows the console delivers the event to
// the whole group and the child already has it; elsewhere the signal is
// forwarded explicitly.
func relaySignals(cmd *exec.Cmd) func() {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-ch:
				if runtime.GOOS == "windows" {
					continue
				}
				if cmd.Process != nil {
					_ = cmd.Process.Signal(sig)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
