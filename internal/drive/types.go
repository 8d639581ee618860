package drive

import (
	"time"

	"github.com/nerrad567/driveshare-core/internal/dataserv"
)

// Tab is one drive configuration.
type Tab struct {
	ID string `json:"id"`

	// Address is the payout address written into the client config.
	Address string `json:"address"`

	// StoragePath is where the client keeps shards; empty uses its default.
	StoragePath string `json:"storage_path"`

	// MaxSizeGB caps the storage the client may use.
	MaxSizeGB int `json:"max_size_gb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTab returns a Tab with a fresh id and timestamps.
func NewTab() *Tab {
	now := time.Now().UTC()
	return &Tab{
		ID:        GenerateID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Identity returns the supervisor key for the tab.
func (t *Tab) Identity() dataserv.Identity {
	return dataserv.Key(t.ID)
}

// Options returns the farm/build options stored on the tab.
func (t *Tab) Options() dataserv.Options {
	return dataserv.Options{
		StoragePath: t.StoragePath,
		MaxSizeGB:   t.MaxSizeGB,
	}
}

// Run is one recorded dataserv-client process.
type Run struct {
	ID          int64      `json:"id"`
	ProcessKey  string     `json:"process_key"`
	Name        string     `json:"name"`
	PID         int        `json:"pid"`
	StartedAt   time.Time  `json:"started_at"`
	StoppedAt   *time.Time `json:"stopped_at,omitempty"`
	ExitError   string     `json:"exit_error,omitempty"`
	StdoutBytes int64      `json:"stdout_bytes"`
	StderrBytes int64      `json:"stderr_bytes"`
}

// Running reports whether the run has not been recorded as stopped.
func (r Run) Running() bool {
	return r.StoppedAt == nil
}
