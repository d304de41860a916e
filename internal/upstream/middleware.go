package upstream

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const accountKey = "account"

// BearerAuth resolves the Authorization header to an account and stores it in
// the echo context under "account".
func BearerAuth(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return fail(c, http.StatusUnauthorized, "Invalid token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return fail(c, http.StatusUnauthorized, "Invalid token")
			}

			acc, err := svc.CurrentAccount(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					return fail(c, http.StatusUnauthorized, "Invalid token")
				}
				return err
			}

			c.Set(accountKey, acc)
			return next(c)
		}
	}
}
