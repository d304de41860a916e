package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/resolveit/session-client/internal/api"
	"github.com/resolveit/session-client/internal/api/handler"
	"github.com/resolveit/session-client/internal/core/service"
	"github.com/resolveit/session-client/internal/pkg/tracing"
	"github.com/resolveit/session-client/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session BFF",
		Long: `Serve the browser-facing session API and the guarded client pages.

Each browser is identified by a cookie and gets its own session, booted
from its stored token on first contact.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")

	return cmd
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close(context.Background())

	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		Enabled:     a.cfg.Tracing.Enabled,
		Endpoint:    a.cfg.Tracing.Endpoint,
		ServiceName: a.cfg.Tracing.ServiceName,
		Version:     version,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	stores, storeCheck, err := a.storeFactory(ctx)
	if err != nil {
		return fmt.Errorf("token store: %w", err)
	}

	gw := a.gateway()
	checks := map[string]handler.Check{"upstream": gw.Ping}
	if storeCheck != nil {
		checks[a.cfg.Session.Store] = storeCheck
	}

	s := a.cfg.Session
	registry := service.NewSessionRegistry(stores, gw, logger.Named("session"),
		service.WithCallTimeout(a.cfg.Upstream.Timeout+time.Second))
	go registry.Run(ctx, s.SweepInterval, s.IdleTTL)

	e := api.NewRouter(api.Deps{
		Sessions: registry,
		Guard: service.NewRouteGuard(service.Fallbacks{
			Login:        s.LoginPath,
			Landing:      s.LandingPath,
			RoleFallback: s.RoleFallbackPath,
		}),
		Checks:       checks,
		CookieName:   s.CookieName,
		CookieSecure: s.CookieSecure,
		Log:          logger.Named("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("port", a.cfg.Port).
			Str("upstream", a.cfg.Upstream.URL).
			Str("store", s.Store).
			Msg("session BFF listening")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
