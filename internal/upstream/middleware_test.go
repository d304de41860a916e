package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestBearerAuth_ValidToken(t *testing.T) {
	svc, _ := newTestService()
	token, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := BearerAuth(svc)(func(c echo.Context) error {
		called = true
		acc, _ := c.Get(accountKey).(*Account)
		if acc == nil || acc.Email != "alice@example.com" {
			t.Fatalf("account not set: %+v", acc)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBearerAuth_Rejects(t *testing.T) {
	svc, _ := newTestService()
	headers := []string{"", "Basic abc", "Bearer", "Bearer not-a-jwt"}

	for _, h := range headers {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := BearerAuth(svc)(func(c echo.Context) error {
			t.Fatalf("should not reach next handler for %q", h)
			return nil
		})
		if err := handler(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", h, rec.Code)
		}
	}
}
