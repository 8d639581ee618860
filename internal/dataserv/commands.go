package dataserv

import (
	"context"
	"fmt"
	"strings"
)

// Logical process names recorded in the registry.
const (
	NameFarm     = "FARM"
	NameBuild    = "BUILD"
	NameRegister = "REGISTER"
	NamePoll     = "POLL"
)

// Registry keys for commands that are not tied to a drive. The '@' prefix
// keeps them out of the drive id alphabet; drive commands reject them.
const (
	KeyRegister = "@register"
	KeyPoll     = "@poll"
)

// IsReservedKey reports whether key belongs to a drive-independent command.
func IsReservedKey(key string) bool {
	return key == KeyRegister || key == KeyPoll
}

// Options configure farm and build runs. The zero value is valid.
type Options struct {
	// StoragePath is where the client stores shards. Empty lets the client
	// use its own default.
	StoragePath string `json:"storage_path"`

	// MaxSizeGB caps the storage used, in whole gigabytes.
	MaxSizeGB int `json:"max_size_gb"`
}

// Validate checks that opts can be rendered as client flags.
func (o Options) Validate() error {
	if o.MaxSizeGB < 0 {
		return fmt.Errorf("%w: max size %d is negative", ErrInvalidCommand, o.MaxSizeGB)
	}
	return nil
}

// DefaultBinary returns the client executable name for platform.
func DefaultBinary(platform string) string {
	if platform == "windows" {
		return "dataserv-client.exe"
	}
	return "dataserv-client"
}

// CommandLine renders binary and args the way they are recorded in a
// process's scoped logger.
func CommandLine(binary string, args []string) string {
	if len(args) == 0 {
		return binary
	}
	return binary + " " + strings.Join(args, " ")
}

// FarmArgs returns the client arguments for a farm run.
//
// The client parses flags strictly by position, so the order is fixed.
func FarmArgs(configPath string, opts Options) []string {
	return append(driveFlags(configPath, opts), "farm")
}

// BuildArgs returns the client arguments for a build run.
func BuildArgs(configPath string, opts Options) []string {
	return append(driveFlags(configPath, opts), "build")
}

// RegisterArgs returns the client arguments for registration.
func RegisterArgs() []string {
	return []string{"register"}
}

// PollArgs returns the client arguments for a poll.
func PollArgs() []string {
	return []string{"poll"}
}

// SetAddressArgs returns the client arguments that store the payout
// address in the drive's config.
func SetAddressArgs(configPath, address string) []string {
	return []string{
		"--config_path=" + configPath,
		"config",
		"--set_payout_address=" + address,
	}
}

func driveFlags(configPath string, opts Options) []string {
	return []string{
		"--config_path=" + configPath,
		"--store_path=" + opts.StoragePath,
		fmt.Sprintf("--max_size=%dGB", opts.MaxSizeGB),
	}
}

// Farm starts farming for the drive id.
func (s *Supervisor) Farm(id Identity, opts Options) (*Process, error) {
	key, err := identityKey(id)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.Bootstrap(key, NameFarm, FarmArgs(s.ConfigPath(key), opts)), nil
}

// Build starts shard building for the drive id.
func (s *Supervisor) Build(id Identity, opts Options) (*Process, error) {
	key, err := identityKey(id)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.Bootstrap(key, NameBuild, BuildArgs(s.ConfigPath(key), opts)), nil
}

// Register runs client registration against its default configuration.
func (s *Supervisor) Register() *Process {
	return s.Bootstrap(KeyRegister, NameRegister, RegisterArgs())
}

// Poll runs a client poll against its default configuration.
func (s *Supervisor) Poll() *Process {
	return s.Bootstrap(KeyPoll, NamePoll, PollArgs())
}

// SetAddress stores the payout address in the drive's client config and
// returns the client's stdout. The invocation runs to completion and is
// never registered.
func (s *Supervisor) SetAddress(ctx context.Context, address string, id Identity) (string, error) {
	key, err := identityKey(id)
	if err != nil {
		return "", err
	}
	if address == "" {
		return "", fmt.Errorf("%w: empty payout address", ErrInvalidCommand)
	}

	args := SetAddressArgs(s.ConfigPath(key), address)
	s.logger.Info("setting payout address", "id", key, "command", CommandLine(s.binary, args))

	stdout, _, err := s.runner.Run(ctx, s.binary, args)
	if err != nil {
		return "", &ExecutionError{Op: "set_address", Err: err}
	}
	return string(stdout), nil
}

func identityKey(id Identity) (string, error) {
	if id == nil {
		return "", fmt.Errorf("%w: nil identity", ErrInvalidCommand)
	}
	key := id.ID()
	if key == "" {
		return "", fmt.Errorf("%w: empty identity key", ErrInvalidCommand)
	}
	if IsReservedKey(key) {
		return "", fmt.Errorf("%w: identity key %q is reserved", ErrInvalidCommand, key)
	}
	return key, nil
}
