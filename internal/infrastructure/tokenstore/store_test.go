package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubMedium struct {
	token string
	err   error
	saves int
}

func (m *stubMedium) Load(_ context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

func (m *stubMedium) Save(_ context.Context, token string) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.token = token
	return nil
}

func (m *stubMedium) Delete(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.token = ""
	return nil
}

// readOnlyMedium loads fine but rejects writes until writeErr is cleared,
// like a storage quota that has been exhausted.
type readOnlyMedium struct {
	token    string
	writeErr error
}

func (m *readOnlyMedium) Load(_ context.Context) (string, error) { return m.token, nil }

func (m *readOnlyMedium) Save(_ context.Context, token string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.token = token
	return nil
}

func (m *readOnlyMedium) Delete(_ context.Context) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.token = ""
	return nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestStore_RoundTripThroughMedium(t *testing.T) {
	medium := &stubMedium{}
	store := New(medium, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "T")
	if medium.token != "T" {
		t.Fatalf("expected medium to hold token, got %q", medium.token)
	}
	if got := store.Get(ctx); got != "T" {
		t.Fatalf("expected T, got %q", got)
	}

	store.Clear(ctx)
	if got := store.Get(ctx); got != "" {
		t.Fatalf("expected empty token after clear, got %q", got)
	}
}

func TestStore_ObservesExternalClear(t *testing.T) {
	medium := &stubMedium{}
	store := New(medium, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "T")
	medium.token = "" // cleared by someone else

	if got := store.Get(ctx); got != "" {
		t.Fatalf("expected external clear to be observed, got %q", got)
	}
}

func TestStore_DegradesToVolatile(t *testing.T) {
	medium := &stubMedium{err: errors.New("quota exceeded")}
	store := New(medium, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "T")
	if !store.Degraded() {
		t.Fatalf("expected store to report degraded mode")
	}
	if got := store.Get(ctx); got != "T" {
		t.Fatalf("expected volatile token, got %q", got)
	}

	store.Clear(ctx)
	if got := store.Get(ctx); got != "" {
		t.Fatalf("expected volatile clear, got %q", got)
	}
}

func TestStore_RecoversWhenMediumReturns(t *testing.T) {
	medium := &stubMedium{err: errors.New("connection refused")}
	store := New(medium, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "T")
	medium.err = nil
	store.Set(ctx, "U")

	if store.Degraded() {
		t.Fatalf("expected store to leave degraded mode")
	}
	if medium.token != "U" {
		t.Fatalf("expected medium to hold U, got %q", medium.token)
	}
}

func TestStore_Volatile(t *testing.T) {
	store := NewVolatile()
	ctx := context.Background()

	if got := store.Get(ctx); got != "" {
		t.Fatalf("expected empty store, got %q", got)
	}
	store.Set(ctx, "T")
	if got := store.Get(ctx); got != "T" {
		t.Fatalf("expected T, got %q", got)
	}
}

func TestFileMedium_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.token")
	ctx := context.Background()

	New(NewFileMedium(path), zerolog.Nop()).Set(ctx, "T")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	reloaded := New(NewFileMedium(path), zerolog.Nop())
	if got := reloaded.Get(ctx); got != "T" {
		t.Fatalf("expected token to survive reload, got %q", got)
	}

	reloaded.Clear(ctx)
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected token file removed, got %v", err)
	}
}

func TestFileMedium_MissingFileIsNoSession(t *testing.T) {
	m := NewFileMedium(filepath.Join(t.TempDir(), "absent.token"))
	token, err := m.Load(context.Background())
	if err != nil || token != "" {
		t.Fatalf("expected empty token and nil error, got %q %v", token, err)
	}
}

func TestStore_FailedSaveKeepsVolatileToken(t *testing.T) {
	medium := &readOnlyMedium{writeErr: errors.New("quota exceeded")}
	store := New(medium, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "T")
	if got := store.Get(ctx); got != "T" {
		t.Fatalf("expected volatile token T while writes fail, got %q", got)
	}
	if got := store.Get(ctx); got != "T" {
		t.Fatalf("expected token to stay T on repeated reads, got %q", got)
	}
}

func TestStore_FailedDeleteDoesNotResurrectToken(t *testing.T) {
	medium := &readOnlyMedium{token: "OLD", writeErr: errors.New("quota exceeded")}
	store := New(medium, zerolog.Nop())
	ctx := context.Background()

	if got := store.Get(ctx); got != "OLD" {
		t.Fatalf("expected OLD from medium, got %q", got)
	}
	store.Clear(ctx)
	if got := store.Get(ctx); got != "" {
		t.Fatalf("expected cleared token to stay cleared, got %q", got)
	}
}

func TestStore_WritesBackMirrorWhenMediumRecovers(t *testing.T) {
	medium := &readOnlyMedium{token: "OLD", writeErr: errors.New("quota exceeded")}
	store := New(medium, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "NEW")
	medium.writeErr = nil

	if got := store.Get(ctx); got != "NEW" {
		t.Fatalf("expected NEW, got %q", got)
	}
	if medium.token != "NEW" {
		t.Fatalf("expected mirror written back to medium, got %q", medium.token)
	}
	if store.Degraded() {
		t.Fatalf("expected store to leave degraded mode after write-back")
	}

	medium.token = ""
	if got := store.Get(ctx); got != "" {
		t.Fatalf("expected external clear observed once clean, got %q", got)
	}
}
