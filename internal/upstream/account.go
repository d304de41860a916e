// Package upstream is a development server for the complaint service's
// authentication endpoints. It issues real HS256 tokens and can answer in
// each of the body shapes the client gateway understands.
package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/resolveit/session-client/internal/core/domain"
)

var (
	ErrAccountExists      = errors.New("email already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("name, email and password are required")
)

// Account is a stored user with its password hash.
type Account struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User returns the public view of the account.
func (a *Account) User() *domain.User {
	return &domain.User{ID: a.ID, Email: a.Email, FullName: a.FullName, Role: a.Role}
}

func cloneAccount(a *Account) *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Repository persists accounts. Create fails with ErrAccountExists on a
// duplicate email; FindByEmail with ErrAccountNotFound.
type Repository interface {
	Create(ctx context.Context, acc *Account) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
}
