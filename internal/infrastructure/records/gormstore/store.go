// Package gormstore provides a SQL implementation of the record store,
// backed by GORM. Records map onto a single table keyed by (id, sk).
package gormstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tilvane/accountd/internal/config"
	"github.com/tilvane/accountd/internal/infrastructure/records"
	"github.com/tilvane/accountd/pkg/errors"
)

type row struct {
	ID        string `gorm:"primaryKey;column:id"`
	SK        string `gorm:"primaryKey;column:sk"`
	Data      []byte `gorm:"column:data"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (row) TableName() string { return "records" }

// Store is a SQL-backed record store.
type Store struct {
	db *gorm.DB
}

// NewPostgres opens a Postgres connection from config and migrates the
// records table.
func NewPostgres(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db)
}

// New wraps an existing GORM handle, running migrations first.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("migrate records table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, id, sk string) (*records.Record, error) {
	var r row
	err := s.db.WithContext(ctx).Where("id = ? AND sk = ?", id, sk).First(&r).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRecordNotFound
		}
		return nil, errors.ErrInternal.WithCause(err)
	}
	return &records.Record{ID: r.ID, SK: r.SK, Data: r.Data}, nil
}

func (s *Store) Create(ctx context.Context, rec *records.Record, overwrite bool) error {
	r := row{ID: rec.ID, SK: rec.SK, Data: rec.Data}
	if overwrite {
		err := s.db.WithContext(ctx).Save(&r).Error
		if err != nil {
			return errors.ErrInternal.WithCause(err)
		}
		return nil
	}
	err := s.db.WithContext(ctx).Create(&r).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict
		}
		return errors.ErrInternal.WithCause(err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, rec *records.Record) error {
	res := s.db.WithContext(ctx).Model(&row{}).
		Where("id = ? AND sk = ?", rec.ID, rec.SK).
		Update("data", rec.Data)
	if res.Error != nil {
		return errors.ErrInternal.WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id, sk string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND sk = ?", id, sk).Delete(&row{})
	if res.Error != nil {
		return errors.ErrInternal.WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

func (s *Store) QueryPrefix(ctx context.Context, id, prefix string) ([]*records.Record, error) {
	var rows []row
	err := s.db.WithContext(ctx).
		Where(`id = ? AND sk LIKE ? ESCAPE '\'`, id, escapeLike(prefix)+"%").
		Order("sk").
		Find(&rows).Error
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	out := make([]*records.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, &records.Record{ID: r.ID, SK: r.SK, Data: r.Data})
	}
	return out, nil
}

// escapeLike escapes LIKE metacharacters; sort-key prefixes contain
// underscores, which LIKE would otherwise treat as single-char wildcards.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
