package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/resolveit/session-client/internal/api/handler"
	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/core/service"
	mongostore "github.com/resolveit/session-client/internal/infrastructure/db/mongo"
	redisstore "github.com/resolveit/session-client/internal/infrastructure/db/redis"
	"github.com/resolveit/session-client/internal/infrastructure/gateway"
	"github.com/resolveit/session-client/internal/infrastructure/tokenstore"
	"github.com/resolveit/session-client/internal/pkg/config"
	"github.com/resolveit/session-client/pkg/logger"
)

// app carries what every subcommand shares: configuration, the logger and
// any backend connections opened along the way.
type app struct {
	envFiles []string
	logLevel string

	cfg *config.Config
	log zerolog.Logger

	redis   *goredis.Client
	mongo   *gomongo.Client
	mongoDB *gomongo.Database
}

func (a *app) init(ctx context.Context) error {
	cfg, err := config.Load(ctx, a.envFiles...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "resolveit",
	})
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
}

func (a *app) redisClient(ctx context.Context) (*goredis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	c, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.redis = c
	return c, nil
}

func (a *app) mongoDatabase(ctx context.Context) (*gomongo.Database, error) {
	if a.mongoDB != nil {
		return a.mongoDB, nil
	}
	c, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      a.cfg.Mongo.URI,
		Database: a.cfg.Mongo.Database,
		AppName:  "resolveit",
	})
	if err != nil {
		return nil, err
	}
	a.mongo, a.mongoDB = c, db
	return db, nil
}

func (a *app) gateway() *gateway.HTTPGateway {
	u := a.cfg.Upstream
	return gateway.New(gateway.Config{
		BaseURL:         u.URL,
		LoginPath:       u.LoginPath,
		RegisterPath:    u.RegisterPath,
		CurrentUserPath: u.CurrentUserPath,
		Timeout:         u.Timeout,
		UserAgent:       "resolveit/" + version,
	}, logger.Named("gateway"))
}

// storeFactory opens the configured backend once and returns a factory of
// per-client token stores over it, plus the readiness check for the backend.
func (a *app) storeFactory(ctx context.Context) (service.StoreFactory, handler.Check, error) {
	log := logger.Named("tokenstore")
	s := a.cfg.Session

	switch s.Store {
	case config.StoreRedis:
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		factory := func(clientID string) ports.TokenStore {
			return tokenstore.New(redisstore.NewTokenMedium(rdb, s.KeyPrefix, clientID, 0), log)
		}
		return factory, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }, nil

	case config.StoreMongo:
		db, err := a.mongoDatabase(ctx)
		if err != nil {
			return nil, nil, err
		}
		factory := func(clientID string) ports.TokenStore {
			return tokenstore.New(mongostore.NewTokenMedium(db, clientID), log)
		}
		return factory, mongostore.Ping(db), nil

	case config.StoreFile:
		dir, err := a.tokenDir()
		if err != nil {
			return nil, nil, err
		}
		factory := func(clientID string) ports.TokenStore {
			return tokenstore.New(tokenstore.NewFileMedium(filepath.Join(dir, clientID+".token")), log)
		}
		return factory, nil, nil

	case config.StoreMemory:
		return func(string) ports.TokenStore { return tokenstore.NewVolatile() }, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", s.Store)
	}
}

// tokenDir is where the file backend keeps one token file per client.
func (a *app) tokenDir() (string, error) {
	if a.cfg.Session.FilePath != "" {
		return a.cfg.Session.FilePath, nil
	}
	return tokenstore.DefaultClientDir()
}

// machine builds the terminal's own session machine, keyed by profile.
func (a *app) machine(ctx context.Context) (*service.SessionMachine, error) {
	factory, _, err := a.cliStoreFactory(ctx)
	if err != nil {
		return nil, err
	}
	store := factory(a.cfg.Session.Profile)
	return service.NewSessionMachine(store, a.gateway(), logger.Named("session"),
		service.WithCallTimeout(a.cfg.Upstream.Timeout+time.Second)), nil
}

// cliStoreFactory is storeFactory except that the file backend uses the
// profile's token file rather than the BFF's per-client directory.
func (a *app) cliStoreFactory(ctx context.Context) (service.StoreFactory, handler.Check, error) {
	if a.cfg.Session.Store != config.StoreFile {
		return a.storeFactory(ctx)
	}
	path := a.cfg.Session.FilePath
	if path == "" {
		p, err := tokenstore.DefaultFilePath(a.cfg.Session.Profile)
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	log := logger.Named("tokenstore")
	return func(string) ports.TokenStore {
		return tokenstore.New(tokenstore.NewFileMedium(path), log)
	}, nil, nil
}
