package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles the complaint service assigns to accounts.
type Role string

const (
	RoleUser           Role = "USER"
	RoleEmployee       Role = "EMPLOYEE"
	RoleSeniorEmployee Role = "SENIOR_EMPLOYEE"
	RoleAdmin          Role = "ADMIN"
)

// Roles returns every valid role, lowest privilege first.
func Roles() []Role {
	return []Role{RoleUser, RoleEmployee, RoleSeniorEmployee, RoleAdmin}
}

// ParseRole maps a wire value onto the closed enum. Unknown values are
// rejected rather than passed through.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleUser, RoleEmployee, RoleSeniorEmployee, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether r is one of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }
