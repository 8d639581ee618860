package dataserv

import "errors"

// Domain-specific errors for the dataserv package.
var (
	// ErrInvalidClient is returned when the client binary runs but reports
	// no version text. The message is shown to operators as-is.
	ErrInvalidClient = errors.New("Invalid dataserv-client") //nolint:staticcheck // user-facing message

	// ErrInvalidCommand is returned when a command cannot be composed from
	// its inputs (missing identity, negative size, empty address).
	ErrInvalidCommand = errors.New("dataserv: invalid command")
)

// ExecutionError reports a run-to-completion invocation that failed to run.
// Its message is the underlying error's message, unchanged.
type ExecutionError struct {
	// Op names the invocation ("version", "set_address").
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
