package session

import (
	"fmt"
	"strings"
)

// Role is the staff privilege tier. The ordering is closed:
// SUPER_ADMIN > ADMIN > VIEWER.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleViewer     Role = "VIEWER"
)

func (r Role) rank() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// Satisfies reports whether a holder of r may do something that requires
// required. Unknown roles satisfy nothing and are satisfied by nothing.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.rank() >= required.rank()
}

// ParseRole accepts the wire spelling case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
