package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
)

// FileSessionStorage persists the MTProto session so restarts skip the bot
// login round trip.
type FileSessionStorage struct {
	Path string
}

// LoadSession loads the session from file
func (s *FileSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, session.ErrNotFound
	}
	return data, nil
}

// StoreSession writes the session atomically: a crash mid-write leaves the
// previous session intact.
func (s *FileSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
