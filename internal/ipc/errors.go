package ipc

import "errors"

var (
	// ErrClosed is returned by Send after the bus is closed.
	ErrClosed = errors.New("ipc: bus closed")

	// ErrEmptyNamespace is returned when sending without a namespace.
	ErrEmptyNamespace = errors.New("ipc: namespace cannot be empty")
)
