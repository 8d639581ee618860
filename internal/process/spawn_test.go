package process

import (
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestExecSpawner_CapturesOutput(t *testing.T) {
	h := ExecSpawner{}.Spawn("/bin/sh", []string{"-c", "echo out; echo err 1>&2"})

	if h.PID() <= 0 {
		t.Fatalf("PID() = %d, want > 0", h.PID())
	}

	stdout, err := io.ReadAll(h.Stdout())
	if err != nil {
		t.Fatalf("reading stdout: %v", err)
	}
	stderr, err := io.ReadAll(h.Stderr())
	if err != nil {
		t.Fatalf("reading stderr: %v", err)
	}

	if err := h.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := string(stdout); got != "out\n" {
		t.Errorf("stdout = %q, want %q", got, "out\n")
	}
	if got := string(stderr); got != "err\n" {
		t.Errorf("stderr = %q, want %q", got, "err\n")
	}
}

func TestExecSpawner_NonZeroExit(t *testing.T) {
	h := ExecSpawner{}.Spawn("/bin/sh", []string{"-c", "exit 3"})
	_, _ = io.ReadAll(h.Stdout())
	_, _ = io.ReadAll(h.Stderr())

	err := h.Wait()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Wait() error = %v, want *exec.ExitError", err)
	}
	if exitErr.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", exitErr.ExitCode())
	}
}

func TestExecSpawner_InvalidBinary(t *testing.T) {
	h := ExecSpawner{}.Spawn("/nonexistent/binary", nil)

	if h.PID() != 0 {
		t.Errorf("PID() = %d, want 0", h.PID())
	}

	out, _ := io.ReadAll(h.Stdout())
	if len(out) != 0 {
		t.Errorf("stdout = %q, want empty", out)
	}

	if err := h.Kill(); err != nil {
		t.Errorf("Kill() error = %v, want nil", err)
	}

	err := h.Wait()
	if err == nil {
		t.Fatal("Wait() error = nil, want start failure")
	}
	if !strings.Contains(err.Error(), "/nonexistent/binary") {
		t.Errorf("Wait() error = %q, want it to name the binary", err)
	}
	if again := h.Wait(); again != err {
		t.Errorf("second Wait() = %v, want %v", again, err)
	}
}

func TestExecSpawner_KillTerminatesGroup(t *testing.T) {
	// The shell forks a sleep; killing only the shell would leave it behind
	// holding stdout open, so reaching EOF proves the group was signalled.
	h := ExecSpawner{}.Spawn("/bin/sh", []string{"-c", "sleep 30 & wait"})

	done := make(chan error, 1)
	go func() {
		_, _ = io.ReadAll(h.Stdout())
		_, _ = io.ReadAll(h.Stderr())
		done <- h.Wait()
	}()

	// Give the shell time to fork
	time.Sleep(100 * time.Millisecond)

	if err := h.Kill(); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("Wait() error = nil, want signal exit")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process group did not exit after Kill")
	}
}

func TestExecSpawner_KillEscalates(t *testing.T) {
	h := ExecSpawner{KillTimeout: 100 * time.Millisecond}.Spawn(
		"/bin/sh", []string{"-c", "trap '' TERM; sleep 30"})

	done := make(chan struct{})
	go func() {
		_, _ = io.ReadAll(h.Stdout())
		_, _ = io.ReadAll(h.Stderr())
		_ = h.Wait()
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := h.Kill(); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process ignoring SIGTERM was not killed")
	}
}

func TestExecSpawner_KillAfterExit(t *testing.T) {
	h := ExecSpawner{}.Spawn("/bin/true", nil)
	_, _ = io.ReadAll(h.Stdout())
	_, _ = io.ReadAll(h.Stderr())
	_ = h.Wait()

	if err := h.Kill(); err != nil {
		t.Errorf("Kill() after exit error = %v, want nil", err)
	}
}

func TestExecSpawner_Env(t *testing.T) {
	h := ExecSpawner{Env: []string{"DRIVESHARE_TEST=hello"}}.Spawn(
		"/bin/sh", []string{"-c", "printf %s \"$DRIVESHARE_TEST\""})

	out, _ := io.ReadAll(h.Stdout())
	_, _ = io.ReadAll(h.Stderr())
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("stdout = %q, want %q", out, "hello")
	}
}
