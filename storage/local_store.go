package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore keeps one JSON file per record kind in a directory on the
// device. It is the fallback when neither remote backend is available and
// the source side of a sync.
type LocalStore struct {
	fs  afero.Fs
	dir string
	log *slog.Logger
}

func NewLocalStore(fsys afero.Fs, dir string, log *slog.Logger) (*LocalStore, error) {
	exists, err := afero.DirExists(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("stat local store dir %s: %w", dir, err)
	}
	if !exists {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local store dir %s: %w", dir, err)
		}
	}
	return &LocalStore{fs: fsys, dir: dir, log: log.With("backend", BackendLocalOnly)}, nil
}

func (s *LocalStore) Backend() Backend { return BackendLocalOnly }

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) path(key Key) string {
	return filepath.Join(s.dir, key.LocalName()+".json")
}

func (s *LocalStore) Get(_ context.Context, key Key, dest any) (bool, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		s.log.Error("read failed", "key", key.LocalName(), "error", err)
		return false, fmt.Errorf("read %s: %w", key.LocalName(), err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warn("stored value is malformed, treating as absent", "key", key.LocalName(), "error", err)
		return false, nil
	}
	return true, nil
}

// Put writes through a temporary file and a rename so a crash never leaves
// a half-written record.
func (s *LocalStore) Put(_ context.Context, key Key, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.LocalName(), err)
	}
	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		s.log.Error("write failed", "key", key.LocalName(), "error", err)
		return fmt.Errorf("write %s: %w", key.LocalName(), err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		s.log.Error("write failed", "key", key.LocalName(), "error", err)
		return fmt.Errorf("write %s: %w", key.LocalName(), err)
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, key Key) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key.LocalName(), err)
	}
	return nil
}
