package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const clientIDKey = "client_id"

// ClientConfig names the cookie that identifies a browser to the BFF.
type ClientConfig struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

// ClientIdentity makes sure every request carries a client id, issuing a
// fresh UUID cookie when the browser has none (or a forged one).
func ClientIdentity(cfg ClientConfig) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "resolveit_client"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 365 * 24 * time.Hour
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(cfg.CookieName); err == nil {
				if parsed, err := uuid.Parse(ck.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cfg.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(clientIDKey, id)
			return next(c)
		}
	}
}

// ClientID returns the id set by ClientIdentity, or "" outside it.
func ClientID(c echo.Context) string {
	id, _ := c.Get(clientIDKey).(string)
	return id
}
