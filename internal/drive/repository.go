package drive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for tab persistence operations.
type Repository interface {
	// Get retrieves a tab by ID.
	// Returns ErrTabNotFound if the tab does not exist.
	Get(ctx context.Context, id string) (*Tab, error)

	// List retrieves all tabs, oldest first.
	List(ctx context.Context) ([]Tab, error)

	// Create inserts a new tab.
	// Returns ErrTabExists if a tab with the same ID already exists.
	Create(ctx context.Context, tab *Tab) error

	// Update modifies an existing tab.
	// Returns ErrTabNotFound if the tab does not exist.
	Update(ctx context.Context, tab *Tab) error

	// Delete removes a tab by ID.
	// Returns ErrTabNotFound if the tab does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const tabColumns = `id, address, storage_path, max_size_gb, created_at, updated_at`

// Get retrieves a tab by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Tab, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tabColumns+` FROM drives WHERE id = ?`, id)

	tab, err := scanTab(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTabNotFound
		}
		return nil, fmt.Errorf("querying tab by id: %w", err)
	}
	return tab, nil
}

// List retrieves all tabs, oldest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Tab, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tabColumns+` FROM drives ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying tabs: %w", err)
	}
	defer rows.Close()

	var tabs []Tab
	for rows.Next() {
		tab, err := scanTab(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tab: %w", err)
		}
		tabs = append(tabs, *tab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tabs: %w", err)
	}
	return tabs, nil
}

// Create inserts a new tab. Zero timestamps are set to now.
func (r *SQLiteRepository) Create(ctx context.Context, tab *Tab) error {
	if err := tab.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if tab.CreatedAt.IsZero() {
		tab.CreatedAt = now
	}
	if tab.UpdatedAt.IsZero() {
		tab.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO drives (`+tabColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		tab.ID,
		tab.Address,
		tab.StoragePath,
		tab.MaxSizeGB,
		tab.CreatedAt.UTC().Format(timeLayout),
		tab.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrTabExists
		}
		return fmt.Errorf("inserting tab: %w", err)
	}
	return nil
}

// Update modifies an existing tab and bumps UpdatedAt.
func (r *SQLiteRepository) Update(ctx context.Context, tab *Tab) error {
	if err := tab.Validate(); err != nil {
		return err
	}

	tab.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE drives
		SET address = ?, storage_path = ?, max_size_gb = ?, updated_at = ?
		WHERE id = ?`,
		tab.Address,
		tab.StoragePath,
		tab.MaxSizeGB,
		tab.UpdatedAt.UTC().Format(timeLayout),
		tab.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tab: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes a tab by ID. Its run history is kept.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM drives WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tab: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTabNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTab(scanner rowScanner) (*Tab, error) {
	var t Tab
	var createdAt, updatedAt string

	if err := scanner.Scan(
		&t.ID,
		&t.Address,
		&t.StoragePath,
		&t.MaxSizeGB,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

// isUniqueConstraintError checks if a SQLite error is a UNIQUE or PRIMARY
// KEY constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
