package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/resolveit/session-client/internal/infrastructure/db/mongo"
	"github.com/resolveit/session-client/internal/pkg/config"
	"github.com/resolveit/session-client/internal/upstream"
	"github.com/resolveit/session-client/pkg/logger"
)

func upstreamCmd(a *app) *cobra.Command {
	var (
		port  string
		shape string
		seed  string
	)

	cmd := &cobra.Command{
		Use:   "upstream",
		Short: "Run a development auth service",
		Long: `Run a stand-in for the complaint service's /auth endpoints.

Accounts live in memory or MongoDB (STUB_STORE). --shape picks where the
user object sits in responses so clients can be tested against each
variant the real service has shipped.`,
		Example: `  resolveit upstream --seed admin@example.com:secret1:ADMIN
  resolveit upstream --shape bare --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.cfg.Stub
			if port != "" {
				st.Port = port
			}
			if shape != "" {
				st.Shape = shape
			}
			if seed != "" {
				st.Seed = seed
			}
			return a.runUpstream(cmd.Context(), st)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides STUB_PORT)")
	cmd.Flags().StringVar(&shape, "shape", "", "response shape: user, data or bare")
	cmd.Flags().StringVar(&seed, "seed", "", "accounts to create, email:password:ROLE[:Full Name],...")

	return cmd
}

func (a *app) runUpstream(parent context.Context, st config.StubConfig) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close(context.Background())

	shape, err := upstream.ParseShape(st.Shape)
	if err != nil {
		return err
	}
	accounts, err := upstream.ParseSeed(st.Seed)
	if err != nil {
		return err
	}

	var repo upstream.Repository
	switch st.Store {
	case config.StoreMongo:
		db, err := a.mongoDatabase(ctx)
		if err != nil {
			return err
		}
		r := mongo.NewAccountRepository(db)
		if err := r.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo = r
	default:
		repo = upstream.NewMemoryRepository()
	}

	log := logger.Named("upstream")
	svc := upstream.NewService(repo, st.JWTSecret, st.TokenTTL, log)
	if err := svc.Seed(ctx, accounts); err != nil {
		return err
	}

	e := upstream.NewRouter(svc, shape, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", st.Port).
			Str("shape", string(shape)).
			Str("store", st.Store).
			Int("seeded", len(accounts)).
			Msg("upstream stub listening")
		if err := e.Start(":" + st.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("upstream: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
