package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Token store backends selectable with SESSION_STORE.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Upstream UpstreamConfig
	Session  SessionConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Stub     StubConfig
	Tracing  TracingConfig
}

// UpstreamConfig locates the complaint service's auth endpoints.
type UpstreamConfig struct {
	URL             string        `env:"UPSTREAM_URL,               default=http://localhost:8081"`
	LoginPath       string        `env:"UPSTREAM_LOGIN_PATH,        default=/auth/login"`
	RegisterPath    string        `env:"UPSTREAM_REGISTER_PATH,     default=/auth/register"`
	CurrentUserPath string        `env:"UPSTREAM_CURRENT_USER_PATH, default=/auth/me"`
	Timeout         time.Duration `env:"UPSTREAM_TIMEOUT,           default=10s"`
}

type SessionConfig struct {
	Store            string        `env:"SESSION_STORE,              default=file"`
	KeyPrefix        string        `env:"SESSION_KEY_PREFIX,         default=resolveit:token"`
	FilePath         string        `env:"SESSION_FILE"`
	Profile          string        `env:"SESSION_PROFILE,            default=default"`
	IdleTTL          time.Duration `env:"SESSION_IDLE_TTL,           default=30m"`
	SweepInterval    time.Duration `env:"SESSION_SWEEP_INTERVAL,     default=1m"`
	CookieName       string        `env:"SESSION_COOKIE,             default=resolveit_client"`
	CookieSecure     bool          `env:"SESSION_COOKIE_SECURE,      default=false"`
	LoginPath        string        `env:"SESSION_LOGIN_PATH,         default=/login"`
	LandingPath      string        `env:"SESSION_LANDING_PATH,       default=/public-complaints"`
	RoleFallbackPath string        `env:"SESSION_ROLE_FALLBACK_PATH, default=/public-complaints"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=resolveit"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// StubConfig drives the development upstream server.
type StubConfig struct {
	Port      string        `env:"STUB_PORT,       default=8081"`
	JWTSecret string        `env:"STUB_JWT_SECRET, default=dev-secret"`
	TokenTTL  time.Duration `env:"STUB_TOKEN_TTL,  default=24h"`
	Shape     string        `env:"STUB_SHAPE,      default=user"`
	Store     string        `env:"STUB_STORE,      default=memory"`
	Seed      string        `env:"STUB_SEED"`
}

// TracingConfig points spans at an OTLP/HTTP collector. Tracing is off
// while OTEL_ENDPOINT is empty.
type TracingConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED,      default=true"`
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME, default=resolveit"`
}

// IsDevelopment enables console logging.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Validate rejects settings the wiring cannot act on.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case StoreFile, StoreRedis, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("config: SESSION_STORE must be one of file, redis, mongo, memory (got %q)", c.Session.Store)
	}
	switch c.Stub.Store {
	case StoreMemory, StoreMongo:
	default:
		return fmt.Errorf("config: STUB_STORE must be memory or mongo (got %q)", c.Stub.Store)
	}
	if c.Upstream.URL == "" {
		return errors.New("config: UPSTREAM_URL is required")
	}
	return nil
}

// Load reads a .env file when present, then the environment.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromLookuper(ctx, envconfig.OsLookuper())
}

// FromLookuper builds a Config from an arbitrary variable source.
func FromLookuper(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
