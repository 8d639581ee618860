package dataserv

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/driveshare-core/internal/process"
	"github.com/nerrad567/driveshare-core/internal/shutdown"
)

// OutputNamespace is the IPC namespace carrying OutputEvent values.
const OutputNamespace = "process_output"

// Identity is the drive a command runs for. Only its key is used.
type Identity interface {
	ID() string
}

// Channel is the host notification bus. The supervisor only sends.
type Channel interface {
	Send(namespace string, payload any) error
}

type discardChannel struct{}

func (discardChannel) Send(string, any) error { return nil }

// Config holds the collaborators of a Supervisor. Zero values are defaulted
// by New.
type Config struct {
	// DataDir is the root under which per-drive client configs live.
	DataDir string

	// Binary is the dataserv-client executable.
	// Defaults to DefaultBinary for the current platform.
	Binary string

	// Channel receives process_output events. Defaults to discarding them.
	Channel Channel

	// Spawner starts long-running children. Defaults to process.ExecSpawner.
	Spawner process.Spawner

	// Runner executes run-to-completion invocations.
	// Defaults to process.ExecRunner.
	Runner process.Runner

	// Platform reports the current platform name (runtime.GOOS values).
	// It is queried on every use. Defaults to returning runtime.GOOS.
	Platform func() string

	// Shutdown receives the host-exit hook. Defaults to shutdown.Default.
	Shutdown *shutdown.Registry

	// NewStreamLogger creates the scoped logger for a new process.
	// Defaults to an in-memory logger.
	NewStreamLogger func(id, name string) StreamLogger

	// Observer is notified of lifecycle and output volume. Optional.
	Observer Observer
}

// Status is a point-in-time view of one registry entry.
type Status struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Live      bool          `json:"live"`
	PID       int           `json:"pid,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Uptime    time.Duration `json:"uptime,omitempty"`
}

// entry is one registry slot. proc == nil marks a tombstone; last keeps the
// most recent process so its output stays readable after termination.
type entry struct {
	name string
	proc *Process
	last *Process
}

// Supervisor tracks dataserv-client processes by identity key.
type Supervisor struct {
	dataDir   string
	binary    string
	channel   Channel
	spawner   process.Spawner
	runner    process.Runner
	platform  func() string
	newLogger func(id, name string) StreamLogger
	observer  Observer
	logger    Logger

	mu      sync.Mutex
	entries map[string]*entry
	relays  sync.WaitGroup
}

// exitHookToken keys the single host-exit hook in a shutdown registry.
type exitHookToken struct{}

var (
	liveMu sync.Mutex
	live   = make(map[*Supervisor]struct{})
)

// New creates a Supervisor and registers it with the host-exit sweep.
func New(cfg Config) *Supervisor {
	if cfg.Platform == nil {
		cfg.Platform = func() string { return runtime.GOOS }
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary(cfg.Platform())
	}
	if cfg.Channel == nil {
		cfg.Channel = discardChannel{}
	}
	if cfg.Spawner == nil {
		cfg.Spawner = process.ExecSpawner{}
	}
	if cfg.Runner == nil {
		cfg.Runner = process.ExecRunner{}
	}
	if cfg.Shutdown == nil {
		cfg.Shutdown = shutdown.Default
	}
	if cfg.NewStreamLogger == nil {
		cfg.NewStreamLogger = func(string, string) StreamLogger {
			return NewMemoryLogger(DefaultOutputLimit)
		}
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}

	s := &Supervisor{
		dataDir:   cfg.DataDir,
		binary:    cfg.Binary,
		channel:   cfg.Channel,
		spawner:   cfg.Spawner,
		runner:    cfg.Runner,
		platform:  cfg.Platform,
		newLogger: cfg.NewStreamLogger,
		observer:  cfg.Observer,
		logger:    noopLogger{},
		entries:   make(map[string]*entry),
	}

	liveMu.Lock()
	live[s] = struct{}{}
	liveMu.Unlock()

	cfg.Shutdown.InstallOnce(exitHookToken{}, "dataserv: terminate children", sweepLive)

	return s
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// Binary returns the configured executable.
func (s *Supervisor) Binary() string {
	return s.binary
}

// ConfigPath returns the per-drive client config path for id.
// The key is used verbatim; callers are responsible for path safety.
func (s *Supervisor) ConfigPath(id string) string {
	return s.dataDir + "/drives/" + id
}

// Bootstrap starts the client with args and tracks it under id.
//
// A live process already registered under id is terminated first. Spawn
// failures are not returned here: they are reported by the Process's Wait
// and written to its scoped logger.
func (s *Supervisor) Bootstrap(id, name string, args []string) *Process {
	s.mu.Lock()

	e, ok := s.entries[id]
	if ok && e.proc != nil {
		s.logger.Warn("replacing live process", "id", id, "name", e.name, "new_name", name)
		s.killLocked(id, e)
	}

	logger := s.newLogger(id, name)
	logger.Write("command", []byte(CommandLine(s.binary, args)+"\n"))

	h := s.spawner.Spawn(s.binary, args)
	p := &Process{
		id:        id,
		name:      name,
		args:      append([]string(nil), args...),
		handle:    h,
		logger:    logger,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	e.name = name
	e.proc = p
	e.last = p

	s.relays.Add(1)
	s.mu.Unlock()

	s.logger.Info("process started",
		"id", id,
		"name", name,
		"pid", h.PID(),
		"command", CommandLine(s.binary, args),
	)
	s.observer.ProcessStarted(p)

	go s.relay(p)

	return p
}

// Terminate signals the live process registered under id and tombstones
// its entry. Unknown or already terminated ids are a no-op. It reports
// whether a process was signalled; it does not wait for the exit.
func (s *Supervisor) Terminate(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.proc == nil {
		return false
	}
	s.killLocked(id, e)
	return true
}

// TerminateAll signals every live process. A failure on one child does
// not prevent the others from being signalled.
func (s *Supervisor) TerminateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.proc != nil {
			s.killLocked(id, e)
		}
	}
}

// killLocked tombstones e and signals its process. Must hold s.mu.
func (s *Supervisor) killLocked(id string, e *entry) {
	p := e.proc
	e.proc = nil

	if err := safeKill(p.handle); err != nil {
		s.logger.Warn("failed to terminate process", "id", id, "name", e.name, "error", err)
		return
	}
	s.logger.Info("process terminated", "id", id, "name", e.name, "pid", p.handle.PID())
}

func safeKill(h process.Handle) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during kill: %v", rec)
		}
	}()
	return h.Kill()
}

// Lookup returns the live process under id. For a tombstoned id it returns
// (nil, true); for an id never bootstrapped, (nil, false).
func (s *Supervisor) Lookup(id string) (*Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.proc, true
}

// Name returns the logical name recorded for id, including tombstones.
func (s *Supervisor) Name(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.name, true
}

// Output returns the scoped log of the most recent process run under id.
func (s *Supervisor) Output(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.last == nil {
		return "", false
	}
	return e.last.logger.Output(), true
}

// Snapshot returns the state of every entry, ordered by id.
func (s *Supervisor) Snapshot() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.entries))
	for id, e := range s.entries {
		st := Status{ID: id, Name: e.name}
		if e.last != nil {
			st.StartedAt = e.last.startedAt
		}
		if e.proc != nil {
			st.Live = true
			st.PID = e.proc.handle.PID()
			st.Uptime = time.Since(e.proc.startedAt)
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close terminates every live process and removes the supervisor from the
// host-exit sweep. Relays keep draining until the children exit.
func (s *Supervisor) Close() {
	liveMu.Lock()
	delete(live, s)
	liveMu.Unlock()

	s.TerminateAll()
}

// sweepLive terminates the children of every open Supervisor.
func sweepLive() {
	liveMu.Lock()
	sups := make([]*Supervisor, 0, len(live))
	for s := range live {
		sups = append(sups, s)
	}
	liveMu.Unlock()

	for _, s := range sups {
		s.TerminateAll()
	}
}
