// Package store is the persistent store of the names table: one embedded SQLite file opened through gorm.
package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	gormadapter "github.com/namesdb/namesdb/internal/logger/adapter/gorm"

	"github.com/namesdb/namesdb/internal/db/models"
)

const (
	// CreateTableSQL is the schema of the names table.
	CreateTableSQL = "CREATE TABLE IF NOT EXISTS names (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)"

	dirPerm = 0o750
)

var (
	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrEmptyPath is returned when a store is opened without a path.
	ErrEmptyPath = errors.New("database path can not be empty")
)

// Option configures Open.
type Option func(*options)

type options struct {
	sqlLogLevel string
}

// WithSQLLogLevel sets the gorm statement log level (silent, error, warn, info).
func WithSQLLogLevel(level string) Option {
	return func(o *options) {
		o.sqlLogLevel = level
	}
}

// Store is an open handle on the database file.
type Store struct {
	path string
	opts []Option

	mu     sync.RWMutex
	db     *gorm.DB
	closed bool
}

// Open opens the database file at path, creating its directory if absent.
// The table is not created here, see EnsureSchema.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	o := options{sqlLogLevel: "warn"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create database directory of %s", path)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormadapter.New(o.sqlLogLevel),
		SkipDefaultTransaction: true, // every operation opens its own transaction
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql handle")
	}

	// sqlite serializes writers, a single connection avoids SQLITE_BUSY between them
	sqlDB.SetMaxOpenConns(1)

	return &Store{path: path, opts: opts, db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}

// Close closes the handle. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql handle")
	}

	return errors.Wrap(sqlDB.Close(), "failed to close database")
}

// Reconnect closes this handle and returns a new one on the same file.
func (s *Store) Reconnect() (*Store, error) {
	if err := s.Close(); err != nil {
		return nil, err
	}

	return Open(s.path, s.opts...)
}

// withTx runs fn in its own transaction on an open handle.
func (s *Store) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	return s.db.WithContext(ctx).Transaction(fn)
}

// EnsureSchema creates the names table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		return tx.Exec(CreateTableSQL).Error
	})

	return errors.Wrap(err, "failed to create names table")
}

// Insert appends a row and returns the id the engine assigned.
func (s *Store) Insert(ctx context.Context, name string) (int64, error) {
	row := models.Name{Name: name}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert name")
	}

	return row.ID, nil
}

// DeleteByID removes at most one row. Zero rows affected means no such id.
func (s *Store) DeleteByID(ctx context.Context, id int64) (int64, error) {
	var affected int64

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		result := tx.Delete(&models.Name{}, id)
		affected = result.RowsAffected

		return result.Error
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete name %d", id)
	}

	return affected, nil
}

// ListAll returns every row in the order the engine returns them.
func (s *Store) ListAll(ctx context.Context) ([]models.Name, error) {
	rows := make([]models.Name, 0)

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		return tx.Find(&rows).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list names")
	}

	return rows, nil
}

// Exec runs a raw statement in its own transaction.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) error {
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		return tx.Exec(sql, args...).Error
	})

	return errors.Wrap(err, "failed to execute statement")
}
