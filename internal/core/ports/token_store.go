package ports

import "context"

// TokenMedium is the durable key-value holder behind a TokenStore.
// Load returns "" with a nil error when no token is stored.
type TokenMedium interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// TokenStore holds the current bearer credential. Its methods never fail the
// caller: an unavailable medium degrades to volatile storage.
type TokenStore interface {
	Get(ctx context.Context) string
	Set(ctx context.Context, token string)
	Clear(ctx context.Context)
}
