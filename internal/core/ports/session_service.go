package ports

import (
	"context"

	"github.com/resolveit/session-client/internal/core/domain"
)

// LoginInput is the pre-submission shape of a sign-in form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the pre-submission shape of a sign-up form.
type RegisterInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SessionReader is the query side exposed to views and guards.
type SessionReader interface {
	Current() domain.Session
	// IsAuthenticated checks the state and the stored token on every call.
	IsAuthenticated(ctx context.Context) bool
	// Subscribe returns a feed that always holds the latest snapshot, and a
	// function that ends the subscription.
	Subscribe() (<-chan domain.Session, func())
}

// SessionService is the full surface collaborators may use. Nothing outside
// it touches the TokenStore or the AuthGateway.
type SessionService interface {
	SessionReader
	Boot(ctx context.Context) domain.Session
	Refresh(ctx context.Context) domain.Session
	Login(ctx context.Context, email, password string) domain.AuthOutcome
	Register(ctx context.Context, name, email, password string) domain.AuthOutcome
	Logout(ctx context.Context)
}
