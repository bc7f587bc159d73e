/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package filterstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/traas-stack/clog/pkg/loganalysis"
)

type (
	// FileStore keeps the set in a single text file.
	FileStore struct {
		path string
	}
)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (*loganalysis.FilterSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read filters from %s", s.path)
	}
	fs, err := loganalysis.Unmarshal(b)
	if err != nil {
		return nil, errors.Wrapf(err, "load filters from %s", s.path)
	}
	return fs, nil
}

// Save writes to a temp file next to the target and renames it over the target,
// so a reader never sees a partial file.
func (s *FileStore) Save(ctx context.Context, fs *loganalysis.FilterSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "save filters to %s", s.path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(loganalysis.Marshal(fs)); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "save filters to %s", s.path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "save filters to %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "save filters to %s", s.path)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.Wrapf(err, "save filters to %s", s.path)
	}
	return errors.Wrapf(os.Rename(tmpPath, s.path), "save filters to %s", s.path)
}

func (s *FileStore) Close() error {
	return nil
}
