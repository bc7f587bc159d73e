/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package filterstore

import (
	"context"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/traas-stack/clog/pkg/loganalysis"
)

var bucketFilters = []byte("filters")

type (
	// BoltStore keeps sets in the "filters" bucket keyed by name.
	BoltStore struct {
		db   *bolt.DB
		name []byte
	}
)

func NewBoltStore(path, name string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}
	return &BoltStore{
		db:   db,
		name: []byte(name),
	}, nil
}

func (s *BoltStore) Load(ctx context.Context) (*loganalysis.FilterSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var fs *loganalysis.FilterSet
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFilters)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get(s.name)
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction, Unmarshal copies what it keeps.
		var err error
		fs, err = loganalysis.Unmarshal(v)
		return err
	})
	if err == ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load filter set %s", s.name)
	}
	return fs, nil
}

func (s *BoltStore) Save(ctx context.Context, fs *loganalysis.FilterSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content := loganalysis.Marshal(fs)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketFilters)
		if err != nil {
			return err
		}
		return b.Put(s.name, content)
	})
	return errors.Wrapf(err, "save filter set %s", s.name)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
