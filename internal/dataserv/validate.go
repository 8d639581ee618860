package dataserv

import (
	"context"
	"strings"
)

// ValidateClient runs binary with --version and returns the reported
// version text. An empty binary means the supervisor's configured one.
//
// The client prints its version on stderr on darwin and on stdout
// everywhere else; the platform is queried on every call.
func (s *Supervisor) ValidateClient(ctx context.Context, binary string) (string, error) {
	if binary == "" {
		binary = s.binary
	}

	stdout, stderr, err := s.runner.Run(ctx, binary, []string{"--version"})
	if err != nil {
		return "", &ExecutionError{Op: "version", Err: err}
	}

	out := stdout
	if s.platform() == "darwin" {
		out = stderr
	}

	version := strings.TrimSpace(string(out))
	if version == "" {
		return "", ErrInvalidClient
	}

	s.logger.Debug("dataserv-client validated", "binary", binary, "version", version)
	return version, nil
}
