// Package file stores snapshots as files in a local directory.
package file

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-faster/errors"

	"github.com/xenking/marine-storefront/internal/domain/cart"
)

var _ cart.Storage = (*Storage)(nil)

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Storage keeps one file per key under Dir.
type Storage struct {
	dir string
}

// New returns a Storage rooted at dir, creating it if needed.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create snapshot dir %s", dir)
	}
	return &Storage{dir: dir}, nil
}

// Load reads the snapshot for key. It returns cart.ErrNoSnapshot when the
// file does not exist.
func (s *Storage) Load(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cart.ErrNoSnapshot
		}
		return nil, errors.Wrapf(err, "read snapshot %q", key)
	}
	return data, nil
}

// Save replaces the snapshot for key. The data is written to a temporary
// file and renamed over the target so readers never see a partial write.
func (s *Storage) Save(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %q", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write snapshot %q", key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "sync snapshot %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close snapshot %q", key)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace snapshot %q", key)
	}
	return nil
}

// Ping reports whether the directory is usable.
func (s *Storage) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return errors.Wrap(err, "stat snapshot dir")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *Storage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", errors.Errorf("invalid snapshot key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}
