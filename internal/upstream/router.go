package upstream

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/resolveit/session-client/pkg/logger"
)

// NewRouter wires the stub's auth endpoints. Paths mirror the gateway's
// defaults and are not configurable here.
func NewRouter(svc *Service, shape Shape, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger(log, "upstream request"))

	h := NewHandler(svc, shape, log)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := e.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.GET("/me", h.Me, BearerAuth(svc))

	return e
}
