package process

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Handle is a running (or failed-to-start) child process.
//
// Stdout and Stderr must be read to EOF before Wait is called. Wait may be
// called more than once and always returns the same result.
type Handle interface {
	PID() int
	Stdout() io.Reader
	Stderr() io.Reader
	Kill() error
	Wait() error
}

// Spawner starts child processes.
//
// Spawn never fails synchronously: a child that could not be started is
// returned as a Handle with empty streams whose Wait reports the cause.
type Spawner interface {
	Spawn(binary string, args []string) Handle
}

// ExecSpawner is the os/exec backed Spawner.
type ExecSpawner struct {
	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// KillTimeout is how long Kill waits after SIGTERM before sending
	// SIGKILL to the process group. Zero disables the escalation.
	KillTimeout time.Duration
}

// Spawn starts binary with args in its own process group.
func (s ExecSpawner) Spawn(binary string, args []string) Handle {
	cmd := exec.Command(binary, args...) //nolint:gosec // Binary comes from operator configuration

	// Create a new process group so we can signal all children on shutdown
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if s.Env != nil {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	if s.WorkDir != "" {
		cmd.Dir = s.WorkDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failedHandle(fmt.Errorf("creating stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return failedHandle(fmt.Errorf("creating stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return failedHandle(fmt.Errorf("starting %s: %w", binary, err))
	}

	return &execHandle{
		cmd:         cmd,
		stdout:      stdout,
		stderr:      stderr,
		killTimeout: s.KillTimeout,
		done:        make(chan struct{}),
	}
}

type execHandle struct {
	cmd         *exec.Cmd
	stdout      io.Reader
	stderr      io.Reader
	startErr    error
	killTimeout time.Duration

	waitOnce sync.Once
	waitErr  error
	done     chan struct{}
}

func failedHandle(err error) *execHandle {
	done := make(chan struct{})
	close(done)
	return &execHandle{
		stdout:   bytes.NewReader(nil),
		stderr:   bytes.NewReader(nil),
		startErr: err,
		done:     done,
	}
}

func (h *execHandle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *execHandle) Stdout() io.Reader { return h.stdout }
func (h *execHandle) Stderr() io.Reader { return h.stderr }

// Kill sends SIGTERM to the child's process group. When a KillTimeout is
// set and the child has not been reaped by then, SIGKILL follows.
func (h *execHandle) Kill() error {
	if h.startErr != nil {
		return nil
	}

	pid := h.PID()

	// Use negative PID to signal the process group (created via Setpgid)
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		// Process might have already exited
		if !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("sending SIGTERM to process group %d: %w", pid, err)
		}
		return nil
	}

	if h.killTimeout > 0 {
		go h.escalate(pid)
	}
	return nil
}

// escalate sends SIGKILL if the child outlives the kill timeout. The pid
// cannot be reused before Wait reaps the child, and done closes only then.
func (h *execHandle) escalate(pid int) {
	timer := time.NewTimer(h.killTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
	case <-timer.C:
		_ = syscall.Kill(-pid, syscall.SIGKILL) //nolint:errcheck // ESRCH means it exited meanwhile
	}
}

func (h *execHandle) Wait() error {
	h.waitOnce.Do(func() {
		if h.startErr != nil {
			h.waitErr = h.startErr
			return
		}
		h.waitErr = h.cmd.Wait()
		close(h.done)
	})
	return h.waitErr
}
