// Package diskstore keeps artifacts as plain files under one root directory.
package diskstore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core/artifact"
)

type store struct {
	root string
}

var _ artifact.Store = (*store)(nil)

// New returns a Store rooted at dir, creating the directory when missing.
func New(dir string) (*store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload directory")
	}
	return &store{root: dir}, nil
}

func (s *store) path(key string) (string, error) {
	if !artifact.ValidKey(key) {
		return "", artifact.ErrInvalidKey
	}
	return filepath.Join(s.root, key), nil
}

// Put writes r under key. An existing file is never overwritten; a partial file is removed.
func (s *store) Put(_ context.Context, key string, r io.Reader) (err error) {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing file")
		}
		if err != nil {
			_ = os.Remove(p)
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		return errors.Wrap(err, "writing file")
	}
	return nil
}

func (s *store) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case os.IsNotExist(err):
		return false, nil
	}
	return false, errors.Wrap(err, "checking file")
}

func (s *store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, artifact.ErrNotExist
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (s *store) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}
