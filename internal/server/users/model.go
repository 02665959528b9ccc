package users

import "time"

// Roles, highest first.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleViewer     = "VIEWER"
)

type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	Role         string
	Permissions  []string
	PasswordHash []byte
	CreatedAt    time.Time
}

// RoleRank orders roles. Unknown roles rank 0.
func RoleRank(role string) int {
	switch role {
	case RoleSuperAdmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}
