package auth

import (
	"errors"
	"regexp"
)

// Role is an authorisation tier.
type Role string

const (
	// RoleViewer has read-only access.
	RoleViewer Role = "viewer"

	// RoleOperator controls dataserv-client processes and drives.
	RoleOperator Role = "operator"
)

// ValidRoles lists every role a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// subjectPattern matches token subjects: 1-64 of alphanumeric, dot, hyphen,
// underscore or @.
var subjectPattern = regexp.MustCompile(`^[a-zA-Z0-9._@-]{1,64}$`)

// IsValidSubject reports whether s may be used as a token subject.
func IsValidSubject(s string) bool {
	return subjectPattern.MatchString(s)
}

// Operator is the identity a token is issued to.
type Operator struct {
	Subject string
	Role    Role
}

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidSubject = errors.New("invalid subject")
	ErrNoSecret       = errors.New("signing secret is empty")
)
