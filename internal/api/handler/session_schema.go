package handler

import (
	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/service"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Response types ---

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role"`
}

type permissionsResponse struct {
	IsAdmin           bool `json:"is_admin"`
	IsEmployeeOrAbove bool `json:"is_employee_or_above"`
}

type sessionResponse struct {
	State         string               `json:"state"`
	Authenticated bool                 `json:"authenticated"`
	User          *userResponse        `json:"user,omitempty"`
	Permissions   *permissionsResponse `json:"permissions,omitempty"`
	Message       string               `json:"message,omitempty"`
}

type outcomeResponse struct {
	Outcome string          `json:"outcome"`
	Message string          `json:"message,omitempty"`
	Session sessionResponse `json:"session"`
}

// --- Mappers ---

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: string(u.Role)}
}

func toSessionResponse(s domain.Session, authenticated bool) sessionResponse {
	resp := sessionResponse{
		State:         string(s.State),
		Authenticated: authenticated,
		Message:       s.Message,
	}
	if authenticated {
		resp.User = toUserResponse(s.User)
		resp.Permissions = &permissionsResponse{
			IsAdmin:           service.IsAdmin(s.User),
			IsEmployeeOrAbove: service.IsEmployeeOrAbove(s.User),
		}
	}
	return resp
}
