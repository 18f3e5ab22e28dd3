package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	sqlite3 "modernc.org/sqlite"
)

// SQLite primary result codes for transient write contention. Extended
// result codes carry the base code in the lower 8 bits.
const (
	sqliteBusyBase   = 5
	sqliteLockedBase = 6
)

// RetryConfig tunes the contention-retry executor. The zero value is not
// usable; start from DefaultRetryConfig.
type RetryConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxElapsedTime      time.Duration
}

// DefaultRetryConfig returns the production retry settings: 50ms initial
// backoff doubling up to 1s with ±50% jitter, bounded by 5s elapsed.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     50 * time.Millisecond,
		MaxInterval:         time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      5 * time.Second,
	}
}

// isBusyError reports whether err is the embedded store's transient
// contention signal (another writer holds the write lock).
func isBusyError(err error) bool {
	var sqliteErr *sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	base := sqliteErr.Code() & 0xff
	return base == sqliteBusyBase || base == sqliteLockedBase
}

// ExecuteRetryVoid runs op, retrying only on busy/locked errors per cfg.
// Non-transient errors are returned on the first attempt. Exhausting the
// retry budget yields ErrBusyExhausted; caller cancellation yields the
// context's error.
func ExecuteRetryVoid(ctx context.Context, cfg RetryConfig, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.RandomizationFactor
	b.MaxElapsedTime = cfg.MaxElapsedTime

	err := backoff.Retry(func() error {
		if opErr := op(); opErr != nil {
			if isBusyError(opErr) {
				return opErr
			}
			return backoff.Permanent(opErr)
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isBusyError(err) {
		return fmt.Errorf("%w: %s", ErrBusyExhausted, err)
	}
	return err
}

// ExecuteRetry is ExecuteRetryVoid for operations that produce a value.
func ExecuteRetry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	var result T
	err := ExecuteRetryVoid(ctx, cfg, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db    *sqlx.DB
	retry RetryConfig
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables
// WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithRetry(dbPath, DefaultRetryConfig())
}

// NewSQLiteStoreWithRetry is NewSQLiteStore with explicit retry settings.
func NewSQLiteStoreWithRetry(dbPath string, retry RetryConfig) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode so readers proceed alongside the single writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, retry: retry}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execRetry runs op through the contention-retry executor with the
// store's configured settings.
func (s *SQLiteStore) execRetry(ctx context.Context, op func() error) error {
	return ExecuteRetryVoid(ctx, s.retry, op)
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
