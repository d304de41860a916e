package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/resolveit/session-client/docs"
	"github.com/resolveit/session-client/internal/api/handler"
	"github.com/resolveit/session-client/internal/api/middleware"
	"github.com/resolveit/session-client/internal/core/service"
	"github.com/resolveit/session-client/internal/pkg/validation"
	"github.com/resolveit/session-client/pkg/logger"
)

// Deps are the collaborators the BFF router needs.
type Deps struct {
	Sessions     *service.SessionRegistry
	Guard        *service.RouteGuard
	Checks       map[string]handler.Check
	CookieName   string
	CookieSecure bool
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// HTTP metrics go to a router-local registry so several routers can live
	// in one process (tests); /metrics also serves the default registry.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(logger.RequestLogger(d.Log, "request"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "resolveit",
		Subsystem:  "bff",
		Registerer: reg,
	}))

	// --- Operational endpoints (no client identity) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Client routes ---
	client := e.Group("", middleware.ClientIdentity(middleware.ClientConfig{
		CookieName: d.CookieName,
		Secure:     d.CookieSecure,
	}))

	sessionHandler := handler.NewSessionHandler(d.Sessions, d.Log)
	session := client.Group("/session")
	session.GET("", sessionHandler.Get)
	session.GET("/watch", sessionHandler.Watch)
	session.POST("/login", sessionHandler.Login)
	session.POST("/register", sessionHandler.Register)
	session.POST("/logout", sessionHandler.Logout)
	session.POST("/refresh", sessionHandler.Refresh)

	landing := d.Guard.Fallbacks().Landing
	client.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, landing)
	})
	for _, r := range pageRoutes() {
		if r.Req == nil {
			client.GET(r.Path, handler.Page(r.Page))
			continue
		}
		client.GET(r.Path, handler.Page(r.Page), middleware.Gate(d.Sessions, d.Guard, *r.Req))
	}

	return e
}
