// Package store is the persistence layer for every entity the service tracks.
// It wraps GORM behind a single dialector switch keyed off the connection
// string, UTC timestamps, and an AutoMigrate-driven schema.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// Store is the typed façade over the database. All entity operations hang
// off it; nothing outside this package touches *gorm.DB directly.
type Store struct {
	db *gorm.DB
}

// Open connects to the database named by url. A postgres:// or
// postgresql:// scheme selects the Postgres dialector; anything else
// (including a bare file: DSN) is treated as SQLite.
func Open(url string) (*Store, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		dialector = postgres.Open(url)
	default:
		dialector = sqlite.Open(url)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", url, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: underlying sql.DB: %w", err)
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
	} else {
		// SQLite has a single writer; GORM's pool must respect that or
		// callers see spurious "database is locked" errors.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db}, nil
}

// Migrate runs AutoMigrate over every entity.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(AllModels()...)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReconcileInterrupted finalizes any ProcessedMessage rows a crash left in
// status=pending. It is called once at
// startup before the Processor begins polling.
func (s *Store) ReconcileInterrupted(ctx context.Context) (int64, error) {
	return s.ReconcileProcessed(ctx)
}

func newID() string { return uuid.NewString() }

func isNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}

func wrapNotFound(entity string, err error) error {
	if isNotFound(err) {
		return apierr.New(apierr.NotFound, "%s not found", entity)
	}
	return err
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
