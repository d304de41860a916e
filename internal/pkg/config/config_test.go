package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestFromLookuper_Defaults(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("FromLookuper: %v", err)
	}
	if cfg.Port != "8080" || cfg.Upstream.URL != "http://localhost:8081" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Upstream.Timeout != 10*time.Second || cfg.Session.IdleTTL != 30*time.Minute {
		t.Fatalf("unexpected durations: %+v %+v", cfg.Upstream, cfg.Session)
	}
	if cfg.Session.Store != StoreFile || cfg.Session.CookieName != "resolveit_client" {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Stub.Shape != "user" || cfg.Stub.Store != StoreMemory {
		t.Fatalf("unexpected stub defaults: %+v", cfg.Stub)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development by default")
	}
}

func TestFromLookuper_Overrides(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"UPSTREAM_URL":     "https://api.example.com",
		"UPSTREAM_TIMEOUT": "3s",
		"SESSION_STORE":    "redis",
		"REDIS_ADDR":       "cache:6379",
		"STUB_SEED":        "a@b.com:pw:ADMIN",
	}))
	if err != nil {
		t.Fatalf("FromLookuper: %v", err)
	}
	if cfg.Upstream.URL != "https://api.example.com" || cfg.Upstream.Timeout != 3*time.Second {
		t.Fatalf("unexpected upstream: %+v", cfg.Upstream)
	}
	if cfg.Session.Store != StoreRedis || cfg.Redis.Addr != "cache:6379" || cfg.Stub.Seed != "a@b.com:pw:ADMIN" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestFromLookuper_RejectsUnknownStore(t *testing.T) {
	_, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_STORE": "sqlite",
	}))
	if err == nil || !strings.Contains(err.Error(), "SESSION_STORE") {
		t.Fatalf("expected SESSION_STORE error, got %v", err)
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STUB_PORT=9191\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("STUB_PORT", "")
	os.Unsetenv("STUB_PORT")

	cfg, err := Load(context.Background(), path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stub.Port != "9191" {
		t.Fatalf("expected STUB_PORT from .env, got %q", cfg.Stub.Port)
	}
}
