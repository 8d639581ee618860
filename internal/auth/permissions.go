package auth

// Permission represents a named capability.
type Permission string

const (
	PermProcessRead    Permission = "process:read"
	PermProcessControl Permission = "process:control"
	PermDriveRead      Permission = "drive:read"
	PermDriveManage    Permission = "drive:manage"
	PermAuditRead      Permission = "audit:read"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermProcessRead,
		PermDriveRead,
	},
	RoleOperator: {
		PermProcessRead,
		PermProcessControl,
		PermDriveRead,
		PermDriveManage,
		PermAuditRead,
	},
}

// HasPermission returns true if role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role,
// or nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
