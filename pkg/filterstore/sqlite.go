/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package filterstore

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/traas-stack/clog/pkg/loganalysis"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type (
	// FilterSetDO is one persisted filter set. Content holds the text codec output.
	FilterSetDO struct {
		ID          int64 `gorm:"primarykey"`
		GmtCreate   time.Time
		GmtModified time.Time
		Name        string `gorm:"unique;"`
		Filters     int    `gorm:"not null;"`
		Content     []byte `gorm:""`
	}

	// SqliteStore keeps sets as rows keyed by name, several sets can share one database.
	SqliteStore struct {
		db   *gorm.DB
		name string
	}
)

func NewSqliteStore(path, name string) (*SqliteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open sqlite %s", path)
	}
	err = db.AutoMigrate(&FilterSetDO{})
	if err != nil {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, pkgerrors.Wrapf(err, "migrate sqlite %s", path)
	}
	return &SqliteStore{
		db:   db,
		name: name,
	}, nil
}

func (s *SqliteStore) Load(ctx context.Context) (*loganalysis.FilterSet, error) {
	var do FilterSetDO
	err := s.db.WithContext(ctx).Where(&FilterSetDO{Name: s.name}).Take(&do).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrapf(err, "load filter set %s", s.name)
	}
	fs, err := loganalysis.Unmarshal(do.Content)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load filter set %s", s.name)
	}
	return fs, nil
}

func (s *SqliteStore) Save(ctx context.Context, fs *loganalysis.FilterSet) error {
	now := time.Now()
	do := FilterSetDO{
		GmtCreate:   now,
		GmtModified: now,
		Name:        s.name,
		Filters:     fs.Len(),
		Content:     loganalysis.Marshal(fs),
	}
	// insert into ... on conflict update ...
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"filters", "content", "gmt_modified"}),
	}).Create(&do).Error
	return pkgerrors.Wrapf(err, "save filter set %s", s.name)
}

func (s *SqliteStore) Close() error {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		return sqlDB.Close()
	}
	return nil
}
