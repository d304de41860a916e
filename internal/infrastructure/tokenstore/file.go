package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileMedium keeps the token in a single file readable only by its owner.
type FileMedium struct {
	path string
}

// NewFileMedium returns a medium writing to path. The parent directory is
// created on the first Save.
func NewFileMedium(path string) *FileMedium {
	return &FileMedium{path: path}
}

// DefaultFilePath is the per-user location used by the terminal client.
func DefaultFilePath(profile string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "resolveit", profile+".token"), nil
}

// DefaultClientDir holds one token file per browser client of the BFF.
func DefaultClientDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "resolveit", "clients"), nil
}

func (m *FileMedium) Load(_ context.Context) (string, error) {
	b, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (m *FileMedium) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (m *FileMedium) Delete(_ context.Context) error {
	err := os.Remove(m.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
