package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/core/service"
	"github.com/resolveit/session-client/internal/infrastructure/tokenstore"
)

type stubGateway struct {
	fetch func(ctx context.Context, token string) domain.AuthOutcome
}

func (g *stubGateway) Login(context.Context, string, string) domain.AuthOutcome {
	return domain.Rejected("Invalid email or password")
}

func (g *stubGateway) Register(context.Context, string, string, string) domain.AuthOutcome {
	return domain.Rejected("Registration failed")
}

func (g *stubGateway) FetchCurrentUser(ctx context.Context, token string) domain.AuthOutcome {
	return g.fetch(ctx, token)
}

// userGateway resolves "tok-<ROLE>" tokens to a user with that role.
func userGateway() *stubGateway {
	return &stubGateway{fetch: func(_ context.Context, token string) domain.AuthOutcome {
		role, err := domain.ParseRole(token[len("tok-"):])
		if err != nil {
			return domain.Rejected("Invalid token")
		}
		return domain.Success(&domain.User{ID: "7", Email: "u@example.com", Role: role}, "")
	}}
}

type testStores struct {
	mu     sync.Mutex
	stores map[string]*tokenstore.Store
}

func (s *testStores) get(clientID string) *tokenstore.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stores == nil {
		s.stores = make(map[string]*tokenstore.Store)
	}
	st, ok := s.stores[clientID]
	if !ok {
		st = tokenstore.NewVolatile()
		s.stores[clientID] = st
	}
	return st
}

func newRegistry(gw ports.AuthGateway) (*service.SessionRegistry, *testStores) {
	stores := &testStores{}
	reg := service.NewSessionRegistry(func(id string) ports.TokenStore { return stores.get(id) }, gw, zerolog.Nop())
	return reg, stores
}

func runGate(t *testing.T, reg *service.SessionRegistry, clientID string, req service.Requirement) (*httptest.ResponseRecorder, bool, domain.Session) {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(r, rec)
	c.Set(clientIDKey, clientID)

	called := false
	var seen domain.Session
	h := Gate(reg, service.NewRouteGuard(service.DefaultFallbacks()), req)(func(c echo.Context) error {
		called = true
		seen, _ = SessionFrom(c)
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, called, seen
}

func signIn(t *testing.T, reg *service.SessionRegistry, stores *testStores, clientID, token string) {
	t.Helper()
	stores.get(clientID).Set(context.Background(), token)
	reg.Get(context.Background(), clientID).Boot(context.Background())
}

func TestGate_LoadingWhileBooting(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	gw := &stubGateway{fetch: func(context.Context, string) domain.AuthOutcome {
		<-release
		return domain.Success(&domain.User{ID: "1", Role: domain.RoleUser}, "")
	}}
	reg, stores := newRegistry(gw)
	stores.get("c1").Set(context.Background(), "tok")

	rec, called, _ := runGate(t, reg, "c1", service.RequireRoles(domain.RoleAdmin))
	if called {
		t.Fatalf("protected handler must not run while booting")
	}
	if rec.Code != http.StatusAccepted || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 202 with Retry-After, got %d %v", rec.Code, rec.Header())
	}
}

func TestGate_AdminRouteRedirectsUserToRoleFallback(t *testing.T) {
	reg, stores := newRegistry(userGateway())
	signIn(t, reg, stores, "c1", "tok-USER")

	rec, called, _ := runGate(t, reg, "c1", service.RequireRoles(domain.RoleAdmin))
	if called {
		t.Fatalf("should not reach next handler")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/public-complaints" {
		t.Fatalf("expected redirect to role fallback, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGate_AllowsAdmin(t *testing.T) {
	reg, stores := newRegistry(userGateway())
	signIn(t, reg, stores, "c1", "tok-ADMIN")

	rec, called, seen := runGate(t, reg, "c1", service.RequireRoles(domain.RoleAdmin))
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected admin to pass, got %d", rec.Code)
	}
	if seen.User == nil || seen.User.Role != domain.RoleAdmin {
		t.Fatalf("expected session in context, got %+v", seen)
	}
}

func TestGate_SignedOutRedirectsToLogin(t *testing.T) {
	reg, _ := newRegistry(userGateway())
	reg.Get(context.Background(), "c1").Boot(context.Background())

	rec, called, _ := runGate(t, reg, "c1", service.RequireAuthenticated())
	if called {
		t.Fatalf("should not reach next handler")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected login redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGate_ExternallyClearedTokenRedirectsToLogin(t *testing.T) {
	reg, stores := newRegistry(userGateway())
	signIn(t, reg, stores, "c1", "tok-USER")
	stores.get("c1").Clear(context.Background())

	rec, called, _ := runGate(t, reg, "c1", service.RequireAuthenticated())
	if called || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected login redirect after token removal, got %d", rec.Code)
	}
}

func TestGate_AnonymousOnlyRedirectsSignedInUser(t *testing.T) {
	reg, stores := newRegistry(userGateway())
	signIn(t, reg, stores, "c1", "tok-EMPLOYEE")

	rec, _, _ := runGate(t, reg, "c1", service.RequireAnonymous())
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/public-complaints" {
		t.Fatalf("expected landing redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
