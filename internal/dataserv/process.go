package dataserv

import (
	"context"
	"time"

	"github.com/nerrad567/driveshare-core/internal/process"
)

// Process is one tracked run of the client binary.
type Process struct {
	id        string
	name      string
	args      []string
	handle    process.Handle
	logger    StreamLogger
	startedAt time.Time

	done chan struct{}
	err  error // set before done is closed
}

// ID returns the identity key the process is registered under.
func (p *Process) ID() string { return p.id }

// Name returns the logical name ("FARM", "BUILD", ...).
func (p *Process) Name() string { return p.name }

// Args returns a copy of the arguments the process was started with.
func (p *Process) Args() []string { return append([]string(nil), p.args...) }

// PID returns the OS process id, or 0 if the process never started.
func (p *Process) PID() int { return p.handle.PID() }

// StartedAt returns when Bootstrap spawned the process.
func (p *Process) StartedAt() time.Time { return p.startedAt }

// Logger returns the process's scoped logger.
func (p *Process) Logger() StreamLogger { return p.logger }

// Done is closed once both output streams are drained and the process has
// been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the process exits or ctx is done. It returns the exit
// error, which includes spawn failures.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
