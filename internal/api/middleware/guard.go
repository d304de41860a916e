package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/service"
)

const sessionKey = "session"

// loadingRetryAfter is the Retry-After hint, in seconds, sent while a
// bootstrap is pending.
const loadingRetryAfter = 1

// Gate enforces req against the client's session. Pending bootstraps get the
// loading placeholder, unmet requirements a redirect, and everything else
// reaches next with the snapshot stored under "session".
func Gate(sessions *service.SessionRegistry, guard *service.RouteGuard, req service.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			m := sessions.Get(ctx, ClientID(c))

			s := m.Current()
			// A token removed behind the machine's back demotes the snapshot.
			if s.State == domain.StateAuthenticated && !m.IsAuthenticated(ctx) {
				s = domain.UnauthenticatedSession()
			}

			d := guard.Decide(req, s)
			switch d.Verdict {
			case service.VerdictLoading:
				c.Response().Header().Set("Retry-After", strconv.Itoa(loadingRetryAfter))
				return c.JSON(http.StatusAccepted, map[string]string{"state": "loading"})
			case service.VerdictRedirect:
				return c.Redirect(http.StatusFound, d.Location)
			case service.VerdictRender:
				c.Set(sessionKey, s)
				return next(c)
			default:
				return c.Redirect(http.StatusFound, guard.Fallbacks().Login)
			}
		}
	}
}

// SessionFrom returns the snapshot stored by Gate.
func SessionFrom(c echo.Context) (domain.Session, bool) {
	s, ok := c.Get(sessionKey).(domain.Session)
	return s, ok
}
