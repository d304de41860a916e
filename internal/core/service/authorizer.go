package service

import "github.com/resolveit/session-client/internal/core/domain"

// HasRole reports whether u is present and holds exactly role.
func HasRole(u *domain.User, role domain.Role) bool {
	return u != nil && u.Role == role
}

// HasAnyRole reports whether u is present and holds one of roles.
func HasAnyRole(u *domain.User, roles ...domain.Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func IsAdmin(u *domain.User) bool {
	return HasRole(u, domain.RoleAdmin)
}

// IsEmployeeOrAbove is true for EMPLOYEE and ADMIN only.
//
// SENIOR_EMPLOYEE is excluded on purpose: that is what the complaint service's
// web client has always done. It is likely an oversight, but the intended
// hierarchy has not been confirmed, so the behaviour is kept as is.
func IsEmployeeOrAbove(u *domain.User) bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case domain.RoleEmployee, domain.RoleAdmin:
		return true
	case domain.RoleUser, domain.RoleSeniorEmployee:
		return false
	default:
		return false
	}
}
