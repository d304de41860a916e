package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "resolveit:token"

// TokenMedium stores one client's bearer token under a single key.
// Key format: <prefix>:<client_id>
type TokenMedium struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewTokenMedium creates a medium for clientID. A zero ttl keeps the key
// until it is deleted.
func NewTokenMedium(client *redis.Client, prefix, clientID string, ttl time.Duration) *TokenMedium {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &TokenMedium{
		client: client,
		key:    fmt.Sprintf("%s:%s", prefix, clientID),
		ttl:    ttl,
	}
}

// Load returns the stored token, or "" when the key is absent.
func (m *TokenMedium) Load(ctx context.Context) (string, error) {
	token, err := m.client.Get(ctx, m.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return token, nil
}

func (m *TokenMedium) Save(ctx context.Context, token string) error {
	if err := m.client.Set(ctx, m.key, token, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (m *TokenMedium) Delete(ctx context.Context) error {
	if err := m.client.Del(ctx, m.key).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}

// Key exposes the storage key, mainly for diagnostics.
func (m *TokenMedium) Key() string { return m.key }
