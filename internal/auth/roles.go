package auth

import (
	"fmt"
	"strings"
)

// Role is an ordered capability level. Higher values may do everything lower
// values can, plus more. Route allow-lists are still explicit: a role is only
// admitted to an endpoint when listed, root included.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
	RoleRoot     Role = "root"
)

var roleRank = map[Role]int{
	RoleEmployee: 0,
	RoleManager:  1,
	RoleAdmin:    2,
	RoleRoot:     3,
}

// ParseRole normalizes and validates a role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := roleRank[role]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}

// Valid reports whether the role is one of the four known levels.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

func (r Role) String() string { return string(r) }

// RoleAtLeast reports whether actual sits at or above required in the
// capability hierarchy.
func RoleAtLeast(actual, required Role) bool {
	a, ok := roleRank[actual]
	if !ok {
		return false
	}
	b, ok := roleRank[required]
	if !ok {
		return false
	}
	return a >= b
}
