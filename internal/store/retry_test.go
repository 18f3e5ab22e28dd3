package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestExecuteRetryPermanentErrorNoRetry(t *testing.T) {
	attempts := 0
	wantErr := errors.New("constraint violated")

	err := ExecuteRetryVoid(context.Background(), testRetryConfig(), func() error {
		attempts++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for a permanent error, got %d", attempts)
	}
}

func TestExecuteRetryReturnsValue(t *testing.T) {
	got, err := ExecuteRetry(context.Background(), testRetryConfig(), func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestExecuteRetryValueErrorReturnsZero(t *testing.T) {
	got, err := ExecuteRetry(context.Background(), testRetryConfig(), func() (string, error) {
		return "partial", errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "" {
		t.Errorf("expected zero value on error, got %q", got)
	}
}

// contendedPair opens two stores on the same database file, pinned to a
// single connection each with SQLite's own busy wait disabled, so write
// contention surfaces to the application retry loop immediately.
func contendedPair(t *testing.T, retry RetryConfig) (*SQLiteStore, *sql.Conn) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "contended.db")
	s, err := NewSQLiteStoreWithRetry(path, retry)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.db.SetMaxOpenConns(1)
	if _, err := s.db.Exec("PRAGMA busy_timeout=0"); err != nil {
		t.Fatalf("disabling busy timeout: %v", err)
	}

	blocker, err := NewSQLiteStoreWithRetry(path, retry)
	if err != nil {
		t.Fatalf("creating blocker store: %v", err)
	}
	t.Cleanup(func() { blocker.Close() })

	conn, err := blocker.db.DB.Conn(context.Background())
	if err != nil {
		t.Fatalf("pinning blocker connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.ExecContext(context.Background(), "PRAGMA busy_timeout=0"); err != nil {
		t.Fatalf("disabling blocker busy timeout: %v", err)
	}

	return s, conn
}

func TestExecRetryBusyBudgetExhausted(t *testing.T) {
	s, blocker := contendedPair(t, testRetryConfig())
	ctx := context.Background()

	if _, err := blocker.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("taking write lock: %v", err)
	}
	defer blocker.ExecContext(ctx, "ROLLBACK")

	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			"INSERT INTO sync_state (user_id, last_etag) VALUES (1, 'abc')")
		return execErr
	})
	if !errors.Is(err, ErrBusyExhausted) {
		t.Fatalf("expected ErrBusyExhausted, got %v", err)
	}
}

func TestExecRetryRecoversWhenLockReleased(t *testing.T) {
	cfg := testRetryConfig()
	cfg.MaxElapsedTime = 5 * time.Second
	s, blocker := contendedPair(t, cfg)
	ctx := context.Background()

	if _, err := blocker.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("taking write lock: %v", err)
	}
	go func() {
		time.Sleep(50 * time.Millisecond)
		blocker.ExecContext(ctx, "COMMIT")
	}()

	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			"INSERT INTO sync_state (user_id, last_etag) VALUES (1, 'abc')")
		return execErr
	})
	if err != nil {
		t.Fatalf("expected retry to recover after lock release, got %v", err)
	}
}

func TestExecRetryCancellationSurfacesContextError(t *testing.T) {
	cfg := testRetryConfig()
	cfg.MaxElapsedTime = 30 * time.Second
	s, blocker := contendedPair(t, cfg)

	if _, err := blocker.ExecContext(context.Background(), "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("taking write lock: %v", err)
	}
	defer blocker.ExecContext(context.Background(), "ROLLBACK")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			"INSERT INTO sync_state (user_id, last_etag) VALUES (1, 'abc')")
		return execErr
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v, should propagate within a backoff interval", elapsed)
	}
}
