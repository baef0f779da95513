// internal/models/role.go
package models

import "strings"

// Role is the caller's access level in the chat and API.
type Role string

const (
	RoleGuest  Role = "Guest"
	RoleMember Role = "Member"
	RoleAdmin  Role = "Admin"
)

// ParseRole is case-insensitive; unknown values map to Guest.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member", "user", "customer":
		return RoleMember
	case "admin", "administrator":
		return RoleAdmin
	default:
		return RoleGuest
	}
}

func (r Role) IsAuthenticated() bool {
	return r == RoleMember || r == RoleAdmin
}
