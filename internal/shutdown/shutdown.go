// Package shutdown keeps the hooks that must run once when the host
// process exits.
//
// Go has no portable at-exit callback, so the binary calls Default.Run
// explicitly from its shutdown path (after the signal context is cancelled
// and before infrastructure connections are closed). Packages register
// their hooks with InstallOnce, keyed by a token they own, so repeated
// construction never stacks duplicate hooks.
package shutdown

import (
	"fmt"
	"sync"
)

// Logger defines the logging interface for the registry.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type hook struct {
	token any
	name  string
	fn    func()
}

// Registry is an ordered set of shutdown hooks.
type Registry struct {
	mu     sync.Mutex
	hooks  []hook
	ran    bool
	logger Logger
}

// Default is the process-wide registry.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{logger: noopLogger{}}
}

// SetLogger sets the logger used to report hook execution.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// InstallOnce adds fn under token unless a hook with that token is
// already installed. It reports whether fn was added.
func (r *Registry) InstallOnce(token any, name string, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.hooks {
		if h.token == token {
			return false
		}
	}
	r.hooks = append(r.hooks, hook{token: token, name: name, fn: fn})
	return true
}

// Installed reports whether a hook with token is registered.
func (r *Registry) Installed(token any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.hooks {
		if h.token == token {
			return true
		}
	}
	return false
}

// Len returns the number of installed hooks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks)
}

// Run executes every hook once, most recently installed first.
// A panicking hook is logged and does not stop the others.
// Subsequent calls are no-ops.
func (r *Registry) Run() {
	r.mu.Lock()
	if r.ran {
		r.mu.Unlock()
		return
	}
	r.ran = true
	hooks := make([]hook, len(r.hooks))
	copy(hooks, r.hooks)
	logger := r.logger
	r.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		if err := runHook(hooks[i]); err != nil {
			logger.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			continue
		}
		logger.Info("shutdown hook complete", "hook", hooks[i].name)
	}
}

// Reset drops all hooks and re-arms Run. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = nil
	r.ran = false
}

func runHook(h hook) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	h.fn()
	return nil
}
