package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/pkg/metrics"
)

const (
	defaultCallTimeout = 10 * time.Second
	bootstrapFlight    = "bootstrap"
)

// SessionMachine owns a client's session state. It is the only writer of its
// TokenStore and the single source of truth read by views and guards.
//
// Every session-mutating asynchronous operation takes a new generation when
// it starts and applies its result only if that generation is still current;
// Logout always advances the generation, so nothing that was in flight can
// bring a logged-out session back.
type SessionMachine struct {
	store   ports.TokenStore
	gateway ports.AuthGateway
	log     zerolog.Logger
	timeout time.Duration

	flight singleflight.Group

	mu      sync.Mutex
	gen     uint64
	session domain.Session
	subs    map[uint64]chan domain.Session
	nextSub uint64
}

// Option customises a SessionMachine.
type Option func(*SessionMachine)

// WithCallTimeout bounds every upstream call made by the machine.
func WithCallTimeout(d time.Duration) Option {
	return func(m *SessionMachine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewSessionMachine returns a machine in the Booting state. Call Boot to
// resolve the stored token.
func NewSessionMachine(store ports.TokenStore, gateway ports.AuthGateway, log zerolog.Logger, opts ...Option) *SessionMachine {
	m := &SessionMachine{
		store:   store,
		gateway: gateway,
		log:     log,
		timeout: defaultCallTimeout,
		session: domain.BootingSession(),
		subs:    make(map[uint64]chan domain.Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ ports.SessionService = (*SessionMachine)(nil)

// ── Queries ──────────────────────────────────────────────────────────────────

func (m *SessionMachine) Current() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Snapshot()
}

// IsAuthenticated requires both an Authenticated state and a non-empty stored
// token. The token is read on every call so a credential removed outside the
// machine is noticed by the next read.
func (m *SessionMachine) IsAuthenticated(ctx context.Context) bool {
	if m.Current().State != domain.StateAuthenticated {
		return false
	}
	return m.store.Get(ctx) != ""
}

// Subscribe returns a channel that always holds the most recent snapshot,
// starting with the current one. Slow readers skip intermediate snapshots.
func (m *SessionMachine) Subscribe() (<-chan domain.Session, func()) {
	ch := make(chan domain.Session, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.session.Snapshot()
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			close(ch)
			m.mu.Unlock()
		})
	}
	return ch, cancel
}

// ── Commands ─────────────────────────────────────────────────────────────────

// Boot resolves the stored token once. Concurrent callers share one upstream
// call and a settled machine never fetches again; use Refresh for that.
func (m *SessionMachine) Boot(ctx context.Context) domain.Session {
	return m.bootstrap(ctx, false)
}

// Refresh re-runs the bootstrap against whatever token is stored now.
func (m *SessionMachine) Refresh(ctx context.Context) domain.Session {
	return m.bootstrap(ctx, true)
}

// Login authenticates with the upstream and, on success, stores the token and
// publishes Authenticated. Failures leave the session and the token untouched.
// A success that lost to a later login or logout is dropped and reported as
// Superseded.
func (m *SessionMachine) Login(ctx context.Context, email, password string) domain.AuthOutcome {
	// A pending bootstrap settles first so a failed login cannot strand the
	// machine in Authenticating.
	m.bootstrap(ctx, false)

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	out := m.gateway.Login(callCtx, email, password)
	cancel()

	if !out.OK() {
		m.log.Info().Str("email", email).Str("outcome", string(out.Kind)).Msg("login failed")
		return out
	}
	if out.User == nil || out.Token == "" {
		return domain.NetworkFailure("malformed response")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		m.discardLocked("login", gen)
		return domain.Superseded()
	}
	m.store.Set(context.WithoutCancel(ctx), out.Token)
	m.publishLocked(domain.AuthenticatedSession(out.User))
	m.log.Info().Str("user_id", out.User.ID).Str("role", string(out.User.Role)).Msg("login succeeded")
	return out
}

// Register creates an account and then signs in with the same credentials,
// returning the login's outcome. A signed-in client only registers; its
// session is left as it is.
func (m *SessionMachine) Register(ctx context.Context, name, email, password string) domain.AuthOutcome {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	out := m.gateway.Register(callCtx, name, email, password)
	cancel()

	if !out.OK() {
		m.log.Info().Str("email", email).Str("outcome", string(out.Kind)).Msg("registration failed")
		return out
	}
	if m.Current().State == domain.StateAuthenticated {
		m.log.Info().Str("email", email).Msg("account registered, current session kept")
		return domain.Success(out.User, "")
	}
	return m.Login(ctx, email, password)
}

// Logout is purely local: it clears the token and publishes Unauthenticated
// in one step, and invalidates every result still in flight.
func (m *SessionMachine) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.store.Clear(ctx)
	m.publishLocked(domain.UnauthenticatedSession())
	m.log.Info().Msg("logged out")
}

// ── Internals ────────────────────────────────────────────────────────────────

func (m *SessionMachine) bootstrap(ctx context.Context, force bool) domain.Session {
	v, _, _ := m.flight.Do(bootstrapFlight, func() (any, error) {
		return m.resolve(ctx, force), nil
	})
	return v.(domain.Session).Snapshot()
}

// resolve runs one bootstrap. It is only called from inside the flight, so at
// most one fetch is outstanding per machine.
func (m *SessionMachine) resolve(ctx context.Context, force bool) domain.Session {
	// Joined callers must not lose the shared result to the first caller's
	// cancellation; the call timeout still applies.
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	if !force && m.session.State != domain.StateBooting {
		s := m.session.Snapshot()
		m.mu.Unlock()
		return s
	}

	m.gen++
	gen := m.gen
	token := m.store.Get(ctx)
	if token == "" {
		m.publishLocked(domain.UnauthenticatedSession())
		s := m.session.Snapshot()
		m.mu.Unlock()
		return s
	}
	m.publishLocked(domain.AuthenticatingSession())
	m.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	out := m.gateway.FetchCurrentUser(callCtx, token)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		m.discardLocked("bootstrap", gen)
		return m.session.Snapshot()
	}

	switch out.Kind {
	case domain.OutcomeSuccess:
		if out.User == nil {
			m.publishLocked(domain.TransientErrorSession("malformed response"))
			break
		}
		m.publishLocked(domain.AuthenticatedSession(out.User))
	case domain.OutcomeRejected:
		m.store.Clear(ctx)
		m.publishLocked(domain.UnauthenticatedSession())
		m.log.Info().Str("reason", out.Message).Msg("stored token rejected, session cleared")
	case domain.OutcomeNetworkFailure:
		// The token is kept: the upstream could not be reached, which says
		// nothing about whether the credential is still valid.
		m.publishLocked(domain.TransientErrorSession(out.Message))
		m.log.Warn().Str("reason", out.Message).Msg("session bootstrap failed, token kept")
	}
	return m.session.Snapshot()
}

// publishLocked replaces the session snapshot and fans it out. Callers hold m.mu.
func (m *SessionMachine) publishLocked(next domain.Session) {
	prev := m.session.State
	m.session = next.Snapshot()
	metrics.SessionTransitionsTotal.WithLabelValues(string(prev), string(next.State)).Inc()
	m.log.Debug().
		Str("from", string(prev)).
		Str("to", string(next.State)).
		Uint64("generation", m.gen).
		Msg("session transition")

	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m.session.Snapshot()
	}
}

func (m *SessionMachine) discardLocked(op string, gen uint64) {
	metrics.SessionStaleResultsTotal.WithLabelValues(op).Inc()
	m.log.Debug().
		Str("op", op).
		Uint64("generation", gen).
		Uint64("current_generation", m.gen).
		Msg("stale result discarded")
}
