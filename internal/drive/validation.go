package drive

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	maxIDLength          = 128
	maxAddressLength     = 128
	maxStoragePathLength = 4096
)

// Tab ids become a path segment of the client config path.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// GenerateID creates a new unique tab ID.
func GenerateID() string {
	return uuid.New().String()
}

// ValidateID checks that id is safe to use as a single path segment.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTab)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidTab, maxIDLength)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: id must not contain path separators or '..'", ErrInvalidTab)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: id contains invalid characters (allowed: alphanumeric, dot, hyphen, underscore)", ErrInvalidTab)
	}
	return nil
}

// ValidateAddress checks a payout address. The client owns the address
// format, so only length and argv-hostile characters are checked here.
func ValidateAddress(address string) error {
	if len(address) > maxAddressLength {
		return fmt.Errorf("%w: address exceeds %d characters", ErrInvalidTab, maxAddressLength)
	}
	if strings.ContainsAny(address, " \t\r\n\x00") {
		return fmt.Errorf("%w: address must not contain whitespace", ErrInvalidTab)
	}
	return nil
}

// Validate checks all tab fields.
func (t *Tab) Validate() error {
	if err := ValidateID(t.ID); err != nil {
		return err
	}
	if err := ValidateAddress(t.Address); err != nil {
		return err
	}
	if t.MaxSizeGB < 0 {
		return fmt.Errorf("%w: max_size_gb must not be negative", ErrInvalidTab)
	}
	if t.StoragePath != "" {
		if len(t.StoragePath) > maxStoragePathLength {
			return fmt.Errorf("%w: storage_path too long", ErrInvalidTab)
		}
		if !filepath.IsAbs(t.StoragePath) {
			return fmt.Errorf("%w: storage_path must be absolute", ErrInvalidTab)
		}
		if strings.ContainsRune(t.StoragePath, 0) {
			return fmt.Errorf("%w: storage_path contains NUL", ErrInvalidTab)
		}
	}
	return nil
}
