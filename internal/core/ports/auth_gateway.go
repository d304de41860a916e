package ports

import (
	"context"

	"github.com/resolveit/session-client/internal/core/domain"
)

// AuthGateway performs the three upstream authentication calls and
// normalises every response into a domain.AuthOutcome.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) domain.AuthOutcome
	// Register only creates the account; it never yields a usable session.
	Register(ctx context.Context, name, email, password string) domain.AuthOutcome
	// FetchCurrentUser resolves a token; 401/403 are always Rejected.
	FetchCurrentUser(ctx context.Context, token string) domain.AuthOutcome
}
