/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package filterstore persists filter sets between runs.
package filterstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/traas-stack/clog/pkg/loganalysis"
)

const (
	TypeFile   = "file"
	TypeSqlite = "sqlite"
	TypeBolt   = "bolt"

	DefaultName = "default"
)

var (
	// ErrNotFound means nothing has been saved under the configured path and name yet.
	ErrNotFound = errors.New("filter set not found")
)

type (
	// Store loads and saves one named filter set.
	Store interface {
		Load(ctx context.Context) (*loganalysis.FilterSet, error)
		// Save replaces whatever was stored before.
		Save(ctx context.Context, fs *loganalysis.FilterSet) error
		Close() error
	}

	Config struct {
		// file, sqlite or bolt
		Type string
		Path string
		// Name keys the set inside sqlite and bolt databases. Ignored by file stores.
		Name string
	}
)

func Open(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("filter store path is empty")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	switch cfg.Type {
	case "", TypeFile:
		return NewFileStore(cfg.Path), nil
	case TypeSqlite:
		return NewSqliteStore(cfg.Path, cfg.Name)
	case TypeBolt:
		return NewBoltStore(cfg.Path, cfg.Name)
	default:
		return nil, fmt.Errorf("unsupported filter store type %q", cfg.Type)
	}
}
