package drive

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/driveshare-core/internal/dataserv"
)

// historyWriteTimeout bounds each database write made from a relay goroutine.
const historyWriteTimeout = 5 * time.Second

// DefaultRunsLimit is used by Runs when limit is not positive.
const DefaultRunsLimit = 50

// Logger is the logging interface used by HistoryRepository.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// openRun tracks a runs row while its process is alive.
type openRun struct {
	rowID       int64
	stdoutBytes int64
	stderrBytes int64
}

// HistoryRepository records every supervised process in the runs table.
// It implements dataserv.Observer. Output volume is counted in memory and
// written once when the process exits.
type HistoryRepository struct {
	db     *sql.DB
	logger Logger

	mu   sync.Mutex
	open map[*dataserv.Process]*openRun
}

var _ dataserv.Observer = (*HistoryRepository)(nil)

// NewHistoryRepository creates a run recorder backed by db.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: noopLogger{},
		open:   make(map[*dataserv.Process]*openRun),
	}
}

// SetLogger sets the logger for write failures.
func (h *HistoryRepository) SetLogger(logger Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// ProcessStarted inserts a runs row for p.
func (h *HistoryRepository) ProcessStarted(p *dataserv.Process) {
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	result, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (process_key, name, pid, started_at) VALUES (?, ?, ?, ?)`,
		p.ID(),
		p.Name(),
		p.PID(),
		p.StartedAt().UTC().Format(timeLayout),
	)
	if err != nil {
		h.logger.Error("recording run start", "id", p.ID(), "name", p.Name(), "error", err)
		return
	}
	rowID, err := result.LastInsertId()
	if err != nil {
		h.logger.Error("reading run id", "id", p.ID(), "error", err)
		return
	}

	h.mu.Lock()
	h.open[p] = &openRun{rowID: rowID}
	h.mu.Unlock()
}

// OutputRelayed adds n bytes to the stream counter of p.
func (h *HistoryRepository) OutputRelayed(p *dataserv.Process, stream string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	run, ok := h.open[p]
	if !ok {
		return
	}
	switch stream {
	case "stdout":
		run.stdoutBytes += int64(n)
	case "stderr":
		run.stderrBytes += int64(n)
	}
}

// ProcessExited closes the runs row of p.
func (h *HistoryRepository) ProcessExited(p *dataserv.Process, exitErr error) {
	h.mu.Lock()
	run, ok := h.open[p]
	delete(h.open, p)
	h.mu.Unlock()
	if !ok {
		return
	}

	var exitText sql.NullString
	if exitErr != nil {
		exitText = sql.NullString{String: exitErr.Error(), Valid: true}
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	_, err := h.db.ExecContext(ctx, `
		UPDATE runs
		SET stopped_at = ?, exit_error = ?, stdout_bytes = ?, stderr_bytes = ?
		WHERE id = ?`,
		time.Now().UTC().Format(timeLayout),
		exitText,
		run.stdoutBytes,
		run.stderrBytes,
		run.rowID,
	)
	if err != nil {
		h.logger.Error("recording run exit", "id", p.ID(), "name", p.Name(), "error", err)
	}
}

// Runs returns the most recent runs for processKey, newest first.
func (h *HistoryRepository) Runs(ctx context.Context, processKey string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, process_key, name, pid, started_at, stopped_at, exit_error, stdout_bytes, stderr_bytes
		FROM runs
		WHERE process_key = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		processKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// MarkInterrupted closes runs left open by a previous instance that did not
// shut down cleanly. It returns the number of rows closed.
func (h *HistoryRepository) MarkInterrupted(ctx context.Context) (int64, error) {
	result, err := h.db.ExecContext(ctx, `
		UPDATE runs
		SET stopped_at = ?, exit_error = 'interrupted'
		WHERE stopped_at IS NULL`,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("closing interrupted runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func scanRun(scanner rowScanner) (*Run, error) {
	var r Run
	var startedAt string
	var stoppedAt, exitErr sql.NullString

	if err := scanner.Scan(
		&r.ID,
		&r.ProcessKey,
		&r.Name,
		&r.PID,
		&startedAt,
		&stoppedAt,
		&exitErr,
		&r.StdoutBytes,
		&r.StderrBytes,
	); err != nil {
		return nil, err
	}

	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if stoppedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, stoppedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing stopped_at: %w", err)
		}
		r.StoppedAt = &t
	}
	r.ExitError = exitErr.String
	return &r, nil
}
