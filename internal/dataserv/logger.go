package dataserv

import (
	"sync"
)

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StreamLogger records the raw output of one tracked process.
// Implementations must be safe for concurrent use.
type StreamLogger interface {
	// Write records chunk under stream ("command", "stdout", "stderr", "exit").
	Write(stream string, chunk []byte)

	// Output returns everything recorded so far, in write order.
	Output() string
}

// DefaultOutputLimit is the number of trailing bytes a MemoryLogger keeps.
const DefaultOutputLimit = 64 * 1024

// MemoryLogger is a StreamLogger that keeps the most recent output in memory.
type MemoryLogger struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

// NewMemoryLogger returns a MemoryLogger retaining at most limit bytes.
// A limit <= 0 means DefaultOutputLimit.
func NewMemoryLogger(limit int) *MemoryLogger {
	if limit <= 0 {
		limit = DefaultOutputLimit
	}
	return &MemoryLogger{limit: limit}
}

// Write appends chunk, dropping the oldest bytes beyond the limit.
func (l *MemoryLogger) Write(_ string, chunk []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = append(l.buf, chunk...)
	if over := len(l.buf) - l.limit; over > 0 {
		l.buf = append(l.buf[:0], l.buf[over:]...)
	}
}

// Output returns the retained text.
func (l *MemoryLogger) Output() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return string(l.buf)
}
