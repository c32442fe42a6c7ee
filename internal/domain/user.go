package domain

import (
	"fmt"
	"time"
)

// Role enumerates the three account roles.
type Role string

const (
	RoleUser  Role = "User"
	RoleRep   Role = "Rep"
	RoleAdmin Role = "Admin"
)

// ParseRole normalizes external input into a Role.
func ParseRole(raw string) (Role, error) {
	switch normalizeEnum(raw) {
	case "user":
		return RoleUser, nil
	case "rep", "representative":
		return RoleRep, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// User is an account that creates tickets, resolves them, or administers
// the system depending on its role.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
