package dataserv

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/driveshare-core/internal/process"
	"github.com/nerrad567/driveshare-core/internal/shutdown"
)

// fakeHandle is a process whose output is written by the test through
// pipes. Kill ends both streams, as a real SIGTERM would.
type fakeHandle struct {
	pid     int
	stdoutR io.Reader
	stdoutW *io.PipeWriter
	stderrR io.Reader
	stderrW *io.PipeWriter
	waitErr error

	mu         sync.Mutex
	kills      int
	killErr    error
	killPanics bool
}

func newFakeHandle(pid int) *fakeHandle {
	or, ow := io.Pipe()
	er, ew := io.Pipe()
	return &fakeHandle{pid: pid, stdoutR: or, stdoutW: ow, stderrR: er, stderrW: ew}
}

// newFailedHandle mimics a binary that could not be started.
func newFailedHandle(err error) *fakeHandle {
	return &fakeHandle{
		stdoutR: bytes.NewReader(nil),
		stderrR: bytes.NewReader(nil),
		waitErr: err,
	}
}

func (h *fakeHandle) PID() int          { return h.pid }
func (h *fakeHandle) Stdout() io.Reader { return h.stdoutR }
func (h *fakeHandle) Stderr() io.Reader { return h.stderrR }
func (h *fakeHandle) Wait() error       { return h.waitErr }

func (h *fakeHandle) Kill() error {
	h.mu.Lock()
	h.kills++
	panics, err := h.killPanics, h.killErr
	h.mu.Unlock()

	if panics {
		panic("kill exploded")
	}
	h.exit()
	return err
}

func (h *fakeHandle) Kills() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kills
}

// exit ends both streams so the relay reaps the process.
func (h *fakeHandle) exit() {
	if h.stdoutW != nil {
		h.stdoutW.Close()
	}
	if h.stderrW != nil {
		h.stderrW.Close()
	}
}

type spawnCall struct {
	binary string
	args   []string
}

// fakeSpawner hands out queued handles, or fresh ones when the queue is
// empty.
type fakeSpawner struct {
	mu      sync.Mutex
	queue   []*fakeHandle
	calls   []spawnCall
	handles []*fakeHandle
	nextPID int
}

func (s *fakeSpawner) Spawn(binary string, args []string) process.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, spawnCall{binary: binary, args: args})

	var h *fakeHandle
	if len(s.queue) > 0 {
		h, s.queue = s.queue[0], s.queue[1:]
	} else {
		s.nextPID++
		h = newFakeHandle(1000 + s.nextPID)
	}
	s.handles = append(s.handles, h)
	return h
}

func (s *fakeSpawner) Calls() []spawnCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]spawnCall(nil), s.calls...)
}

func (s *fakeSpawner) Handle(i int) *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[i]
}

type fakeRunner struct {
	mu     sync.Mutex
	stdout []byte
	stderr []byte
	err    error
	calls  []spawnCall
}

func (r *fakeRunner) Run(_ context.Context, binary string, args []string) ([]byte, []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, spawnCall{binary: binary, args: args})
	return r.stdout, r.stderr, r.err
}

type sent struct {
	namespace string
	payload   any
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (c *fakeChannel) Send(namespace string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{namespace: namespace, payload: payload})
	return c.err
}

func (c *fakeChannel) Events() []OutputEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []OutputEvent
	for _, s := range c.sent {
		if ev, ok := s.payload.(OutputEvent); ok && s.namespace == OutputNamespace {
			out = append(out, ev)
		}
	}
	return out
}

type exitRecord struct {
	id, name string
	err      error
}

type recordingObserver struct {
	mu      sync.Mutex
	started []string
	bytes   map[string]int
	exited  []exitRecord
}

func (o *recordingObserver) ProcessStarted(p *Process) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, p.ID())
}

func (o *recordingObserver) OutputRelayed(_ *Process, stream string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bytes == nil {
		o.bytes = make(map[string]int)
	}
	o.bytes[stream] += n
}

func (o *recordingObserver) ProcessExited(p *Process, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exited = append(o.exited, exitRecord{id: p.ID(), name: p.Name(), err: err})
}

type tab struct{ id string }

func (t tab) ID() string { return t.id }

const (
	testDataDir = "/var/lib/driveshare"
	testBinary  = "/usr/local/bin/dataserv-client"
)

type harness struct {
	sup      *Supervisor
	spawner  *fakeSpawner
	runner   *fakeRunner
	channel  *fakeChannel
	observer *recordingObserver
	hooks    *shutdown.Registry
	platform string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		spawner:  &fakeSpawner{},
		runner:   &fakeRunner{},
		channel:  &fakeChannel{},
		observer: &recordingObserver{},
		hooks:    shutdown.NewRegistry(),
		platform: "linux",
	}
	h.sup = New(Config{
		DataDir:  testDataDir,
		Binary:   testBinary,
		Channel:  h.channel,
		Spawner:  h.spawner,
		Runner:   h.runner,
		Platform: func() string { return h.platform },
		Shutdown: h.hooks,
		Observer: h.observer,
	})
	t.Cleanup(h.sup.Close)
	return h
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitDone(t *testing.T, p *Process) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := p.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("process %s/%s did not finish", p.ID(), p.Name())
	}
	return err
}
