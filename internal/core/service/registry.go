package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/pkg/metrics"
)

// StoreFactory returns the token store for one client.
type StoreFactory func(clientID string) ports.TokenStore

type registryEntry struct {
	machine  *SessionMachine
	lastSeen time.Time
	holds    int
}

// SessionRegistry keeps one SessionMachine per client id for the BFF.
// Machines are created and booted on first use and dropped after a period of
// inactivity; the token outlives them, so a dropped client simply boots again.
type SessionRegistry struct {
	stores  StoreFactory
	gateway ports.AuthGateway
	log     zerolog.Logger
	opts    []Option
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewSessionRegistry(stores StoreFactory, gateway ports.AuthGateway, log zerolog.Logger, opts ...Option) *SessionRegistry {
	return &SessionRegistry{
		stores:  stores,
		gateway: gateway,
		log:     log,
		opts:    opts,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the client's machine, creating it on first sight. A new machine
// starts booting in the background; callers observe Booting until it settles.
func (r *SessionRegistry) Get(ctx context.Context, clientID string) *SessionMachine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(ctx, clientID).machine
}

// Hold is Get for long-lived readers such as event streams. The machine is not
// swept until release is called.
func (r *SessionRegistry) Hold(ctx context.Context, clientID string) (*SessionMachine, func()) {
	r.mu.Lock()
	e := r.getLocked(ctx, clientID)
	e.holds++
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			e.holds--
			e.lastSeen = r.now()
			r.mu.Unlock()
		})
	}
	return e.machine, release
}

func (r *SessionRegistry) getLocked(ctx context.Context, clientID string) *registryEntry {
	if e, ok := r.entries[clientID]; ok {
		e.lastSeen = r.now()
		return e
	}

	log := r.log.With().Str("client_id", clientID).Logger()
	m := NewSessionMachine(r.stores(clientID), r.gateway, log, r.opts...)
	e := &registryEntry{machine: m, lastSeen: r.now()}
	r.entries[clientID] = e
	metrics.ActiveSessions.Set(float64(len(r.entries)))

	go m.Boot(context.WithoutCancel(ctx))
	log.Debug().Msg("session machine created")
	return e
}

// Len reports how many machines are held.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops machines idle for longer than idle and returns how many went.
func (r *SessionRegistry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, e := range r.entries {
		if e.holds > 0 || e.lastSeen.After(cutoff) {
			continue
		}
		delete(r.entries, id)
		removed++
	}
	if removed > 0 {
		metrics.ActiveSessions.Set(float64(len(r.entries)))
		r.log.Debug().Int("removed", removed).Int("remaining", len(r.entries)).Msg("idle sessions swept")
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}
