package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/gh-inbox/internal/store"
)

// NewTestStore creates a SQLiteStore backed by a temporary database file
// with all migrations applied and a tight retry budget so contention
// tests fail fast. It automatically closes the store when the test
// completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	retry := store.RetryConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      250 * time.Millisecond,
	}

	path := filepath.Join(t.TempDir(), "inbox.db")
	s, err := store.NewSQLiteStoreWithRetry(path, retry)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
