package tokenstore

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/pkg/metrics"
)

// Store implements ports.TokenStore on top of a durable medium and a
// process-local mirror. Every write lands in the mirror; when the medium
// fails the mirror answers instead and the caller never sees an error.
//
// After a failed write the mirror is newer than the medium (dirty). Until the
// mirror has been written back, reads are served from it.
type Store struct {
	medium ports.TokenMedium
	log    zerolog.Logger

	mu       sync.Mutex
	volatile string
	degraded bool
	dirty    bool
}

// New returns a Store backed by medium. A nil medium yields a purely
// volatile store.
func New(medium ports.TokenMedium, log zerolog.Logger) *Store {
	return &Store{medium: medium, log: log}
}

// NewVolatile returns a Store that never persists across restarts.
func NewVolatile() *Store {
	return New(nil, zerolog.Nop())
}

func (s *Store) Get(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.medium == nil {
		return s.volatile
	}
	if s.dirty {
		if err := s.flush(ctx); err != nil {
			s.degrade("flush", err)
			return s.volatile
		}
		s.dirty = false
		s.recover()
		return s.volatile
	}
	token, err := s.medium.Load(ctx)
	if err != nil {
		s.degrade("load", err)
		return s.volatile
	}
	s.recover()
	s.volatile = token
	return token
}

func (s *Store) Set(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volatile = token
	if s.medium == nil {
		return
	}
	if err := s.medium.Save(ctx, token); err != nil {
		s.dirty = true
		s.degrade("save", err)
		return
	}
	s.dirty = false
	s.recover()
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volatile = ""
	if s.medium == nil {
		return
	}
	if err := s.medium.Delete(ctx); err != nil {
		s.dirty = true
		s.degrade("delete", err)
		return
	}
	s.dirty = false
	s.recover()
}

// flush writes the mirror back to the medium; callers hold s.mu.
func (s *Store) flush(ctx context.Context) error {
	if s.volatile == "" {
		return s.medium.Delete(ctx)
	}
	return s.medium.Save(ctx, s.volatile)
}

// Degraded reports whether the last medium operation failed.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// degrade logs once per degradation episode; callers hold s.mu.
func (s *Store) degrade(op string, err error) {
	metrics.TokenStoreDegradedTotal.WithLabelValues(op).Inc()
	if s.degraded {
		return
	}
	s.degraded = true
	s.log.Warn().
		Err(err).
		AnErr("kind", domain.ErrStorageDegraded).
		Str("op", op).
		Msg("durable token storage unavailable, continuing with volatile storage")
}

func (s *Store) recover() {
	if !s.degraded {
		return
	}
	s.degraded = false
	s.log.Info().Msg("durable token storage recovered")
}
