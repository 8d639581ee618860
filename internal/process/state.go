package process

import (
	"fmt"
	"os"
	"strings"
)

// State returns the single-letter scheduler state of pid as reported by
// /proc/<pid>/stat (R, S, D, T, Z, ...). It is Linux-only and used for
// diagnostics; other platforms return an error.
func State(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}

	// Format: pid (comm) state ...
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", fmt.Errorf("cannot read process state: %w", err)
	}

	// comm may itself contain spaces and parentheses, so find the last )
	statStr := string(data)
	closeParenIdx := strings.LastIndex(statStr, ")")
	if closeParenIdx == -1 || closeParenIdx+2 >= len(statStr) {
		return "", fmt.Errorf("invalid /proc/stat format")
	}

	fields := strings.Fields(statStr[closeParenIdx+2:])
	if len(fields) < 1 {
		return "", fmt.Errorf("invalid /proc/stat format: no state field")
	}
	return fields[0], nil
}

// Describe maps a /proc state letter to a human-readable word.
func Describe(state string) string {
	switch state {
	case "R":
		return "running"
	case "S", "I":
		return "sleeping"
	case "D":
		return "disk-sleep"
	case "T", "t":
		return "stopped"
	case "Z":
		return "zombie"
	case "X", "x":
		return "dead"
	default:
		return "unknown"
	}
}
