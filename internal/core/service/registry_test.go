package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(tokens map[string]string, gw *stubGateway) (*SessionRegistry, *fakeClock) {
	var mu sync.Mutex
	stores := make(map[string]*memStore)
	factory := func(clientID string) ports.TokenStore {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[clientID]
		if !ok {
			s = &memStore{token: tokens[clientID]}
			stores[clientID] = s
		}
		return s
	}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewSessionRegistry(factory, gw, zerolog.Nop(), WithCallTimeout(time.Second))
	r.now = clock.Now
	return r, clock
}

func TestSessionRegistry_OneMachinePerClient(t *testing.T) {
	gw := &stubGateway{fetch: func(context.Context, string) domain.AuthOutcome {
		return domain.Success(alice, "")
	}}
	r, _ := newTestRegistry(map[string]string{"a": "tok-a"}, gw)

	a1 := r.Get(context.Background(), "a")
	a2 := r.Get(context.Background(), "a")
	b := r.Get(context.Background(), "b")
	if a1 != a2 {
		t.Fatalf("expected the same machine for the same client")
	}
	if a1 == b {
		t.Fatalf("expected distinct machines per client")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 machines, got %d", r.Len())
	}

	if s := a1.Boot(context.Background()); s.State != domain.StateAuthenticated {
		t.Fatalf("expected client a to boot authenticated, got %s", s.State)
	}
	if s := b.Boot(context.Background()); s.State != domain.StateUnauthenticated {
		t.Fatalf("expected client b to boot unauthenticated, got %s", s.State)
	}
	if fetch, _, _ := gw.calls(); fetch != 1 {
		t.Fatalf("expected one fetch for the client with a token, got %d", fetch)
	}
}

func TestSessionRegistry_SweepDropsIdleMachines(t *testing.T) {
	r, clock := newTestRegistry(nil, &stubGateway{})

	r.Get(context.Background(), "a")
	clock.Advance(20 * time.Minute)
	r.Get(context.Background(), "b")
	clock.Advance(15 * time.Minute)

	if removed := r.Sweep(30 * time.Minute); removed != 1 {
		t.Fatalf("expected one idle machine removed, got %d", removed)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one machine left, got %d", r.Len())
	}
}

func TestSessionRegistry_HeldMachinesSurviveSweep(t *testing.T) {
	r, clock := newTestRegistry(nil, &stubGateway{})

	m, release := r.Hold(context.Background(), "a")
	clock.Advance(time.Hour)
	if removed := r.Sweep(time.Minute); removed != 0 {
		t.Fatalf("held machine must not be swept")
	}

	release()
	release()
	if r.Get(context.Background(), "a") != m {
		t.Fatalf("expected the held machine to be returned")
	}
	clock.Advance(time.Hour)
	if removed := r.Sweep(time.Minute); removed != 1 {
		t.Fatalf("expected released machine to be swept, got %d", removed)
	}
}

func TestSessionRegistry_RunStopsOnCancel(t *testing.T) {
	r, _ := newTestRegistry(nil, &stubGateway{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
