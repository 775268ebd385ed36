package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore keeps the documents as files under a directory. Keys map to
// relative paths, so the archive namespace becomes a directory tree.
type LocalStore struct {
	dataDir string
}

// NewLocalStore creates the data directory if needed.
func NewLocalStore(dataDir string) (*LocalStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &LocalStore{dataDir: dataDir}, nil
}

// keyPath rejects keys that would escape the data directory.
func (s *LocalStore) keyPath(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dataDir, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put writes through a temp file and renames for atomicity.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	p, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Chmod(0o600); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dataDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return keys, nil
}

// HealthCheck writes and reads back a probe document.
func (s *LocalStore) HealthCheck(ctx context.Context) error {
	const probe = ".healthcheck"
	if err := s.Put(ctx, probe, []byte("ok")); err != nil {
		return err
	}
	if _, err := s.Get(ctx, probe); err != nil {
		return err
	}
	return nil
}

func (s *LocalStore) String() string {
	return "LocalStore(" + s.dataDir + ")"
}
