package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultRunTimeout bounds a Run whose context carries no deadline.
const DefaultRunTimeout = 30 * time.Second

// Runner executes a command to completion and returns its captured output.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	// Timeout applies when ctx has no deadline. Zero means DefaultRunTimeout.
	Timeout time.Duration
}

// Run starts binary with args and waits for it to exit.
// A non-zero exit is returned as an error; output captured up to that
// point is returned alongside it.
func (r ExecRunner) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.Timeout
		if timeout == 0 {
			timeout = DefaultRunTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec // Binary comes from operator configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("running %s: %w (stderr: %s)", binary, err, msg)
		}
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("running %s: %w", binary, err)
	}

	return stdout.Bytes(), stderr.Bytes(), nil
}
