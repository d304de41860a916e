package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/resolveit/session-client/internal/api/handler"
	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/core/service"
	"github.com/resolveit/session-client/internal/infrastructure/gateway"
	"github.com/resolveit/session-client/internal/infrastructure/tokenstore"
	"github.com/resolveit/session-client/internal/upstream"
)

type bff struct {
	srv      *httptest.Server
	client   *http.Client
	upstream *httptest.Server
}

func newBFF(t *testing.T, checks map[string]handler.Check) *bff {
	t.Helper()

	accounts := upstream.NewService(upstream.NewMemoryRepository(), "secret", time.Hour, zerolog.Nop())
	seed := []upstream.SeedAccount{
		{Email: "admin@example.com", Password: "admin123", Role: domain.RoleAdmin, FullName: "Admin"},
		{Email: "user@example.com", Password: "user123", Role: domain.RoleUser, FullName: "User"},
	}
	if err := accounts.Seed(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	up := httptest.NewServer(upstream.NewRouter(accounts, upstream.ShapeData, zerolog.Nop()))
	t.Cleanup(up.Close)

	gw := gateway.New(gateway.Config{BaseURL: up.URL, Timeout: 2 * time.Second}, zerolog.Nop())
	stores := func(string) ports.TokenStore { return tokenstore.NewVolatile() }
	reg := service.NewSessionRegistry(stores, gw, zerolog.Nop())

	e := NewRouter(Deps{
		Sessions: reg,
		Guard:    service.NewRouteGuard(service.DefaultFallbacks()),
		Checks:   checks,
		Log:      zerolog.Nop(),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &bff{srv: srv, client: client, upstream: up}
}

func (b *bff) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, b.srv.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("invalid json %q: %v", raw, err)
		}
	}
	return resp, out
}

func TestRouter_LoginLogoutFlow(t *testing.T) {
	b := newBFF(t, nil)

	resp, body := b.do(t, http.MethodPost, "/session/login", `{"email":"admin@example.com","password":"admin123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", resp.StatusCode, body)
	}
	session, _ := body["session"].(map[string]any)
	if session["state"] != "authenticated" || session["authenticated"] != true {
		t.Fatalf("unexpected session: %+v", session)
	}
	perms, _ := session["permissions"].(map[string]any)
	if perms["is_admin"] != true {
		t.Fatalf("expected admin permissions, got %+v", perms)
	}

	resp, _ = b.do(t, http.MethodGet, "/admin/dashboard", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected admin page to render, got %d", resp.StatusCode)
	}

	resp, _ = b.do(t, http.MethodPost, "/session/logout", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	_, body = b.do(t, http.MethodGet, "/session", "")
	if body["state"] != "unauthenticated" || body["authenticated"] != false {
		t.Fatalf("expected signed-out session, got %+v", body)
	}

	resp, _ = b.do(t, http.MethodGet, "/admin/dashboard", "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected login redirect, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestRouter_LoginRejected(t *testing.T) {
	b := newBFF(t, nil)

	resp, body := b.do(t, http.MethodPost, "/session/login", `{"email":"admin@example.com","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body["outcome"] != "rejected" || body["message"] != "Invalid email or password" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRouter_LoginValidation(t *testing.T) {
	b := newBFF(t, nil)

	resp, body := b.do(t, http.MethodPost, "/session/login", `{"email":"nope","password":""}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "email must be a valid email") {
		t.Fatalf("unexpected error: %+v", body)
	}

	resp, _ = b.do(t, http.MethodPost, "/session/login", `{"email":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", resp.StatusCode)
	}
}

func TestRouter_RegisterSignsIn(t *testing.T) {
	b := newBFF(t, nil)

	resp, body := b.do(t, http.MethodPost, "/session/register",
		`{"name":"Carol","email":"carol@example.com","password":"secret1","confirm_password":"secret1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", resp.StatusCode, body)
	}

	resp, _ = b.do(t, http.MethodGet, "/request-employee", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected USER page to render, got %d", resp.StatusCode)
	}
	resp, _ = b.do(t, http.MethodGet, "/admin/employees", "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/public-complaints" {
		t.Fatalf("expected role fallback redirect, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp, _ = b.do(t, http.MethodGet, "/login", "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/public-complaints" {
		t.Fatalf("expected signed-in user to leave the login page, got %d", resp.StatusCode)
	}
}

func TestRouter_RegisterPasswordMismatch(t *testing.T) {
	b := newBFF(t, nil)

	resp, body := b.do(t, http.MethodPost, "/session/register",
		`{"name":"Carol","email":"carol@example.com","password":"secret1","confirm_password":"secret2"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity || body["error"] != "passwords do not match" {
		t.Fatalf("expected mismatch error, got %d %+v", resp.StatusCode, body)
	}
}

func TestRouter_UpstreamDown(t *testing.T) {
	b := newBFF(t, nil)
	b.upstream.Close()

	resp, body := b.do(t, http.MethodPost, "/session/login", `{"email":"admin@example.com","password":"admin123"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if body["outcome"] != "network_failure" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRouter_RootRedirectsToLanding(t *testing.T) {
	b := newBFF(t, nil)

	resp, _ := b.do(t, http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/public-complaints" {
		t.Fatalf("expected landing redirect, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp, body := b.do(t, http.MethodGet, "/public-complaints", "")
	if resp.StatusCode != http.StatusOK || body["page"] != "public-complaints" {
		t.Fatalf("expected open page, got %d %+v", resp.StatusCode, body)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	b := newBFF(t, map[string]handler.Check{
		"upstream": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	resp, _ := b.do(t, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected liveness 200, got %d", resp.StatusCode)
	}

	resp, body := b.do(t, http.MethodGet, "/health/ready", "")
	if resp.StatusCode != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Fatalf("expected degraded readiness, got %d %+v", resp.StatusCode, body)
	}
	deps, _ := body["dependencies"].(map[string]any)
	if up, _ := deps["upstream"].(map[string]any); up["status"] != "ok" {
		t.Fatalf("unexpected upstream status: %+v", deps)
	}

	resp, _ = b.do(t, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", resp.StatusCode)
	}
}
