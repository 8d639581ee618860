package drive

import "errors"

// Domain errors for the drive package.
var (
	// ErrTabNotFound is returned when a tab ID does not exist.
	ErrTabNotFound = errors.New("drive: tab not found")

	// ErrTabExists is returned when creating a tab with an ID that already exists.
	ErrTabExists = errors.New("drive: tab already exists")

	// ErrInvalidTab is returned when tab validation fails.
	ErrInvalidTab = errors.New("drive: invalid tab")
)
