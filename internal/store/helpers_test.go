package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/gh-inbox/internal/model"
)

// testRetryConfig keeps contention tests fast.
func testRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      250 * time.Millisecond,
	}
}

// newTestStore opens a store on a temporary database file. The shared
// testutil helper lives outside this package to avoid an import cycle.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStoreWithRetry(path, testRetryConfig())
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

// remoteFixture builds a remote notification payload. updatedAt may be
// nil to simulate a remote that reports no activity timestamp.
func remoteFixture(githubID string, updatedAt *time.Time) model.RemoteNotification {
	return model.RemoteNotification{
		GithubID:      githubID,
		Reason:        model.ReasonReviewRequest,
		Unread:        true,
		UpdatedAt:     updatedAt,
		SubjectType:   model.SubjectPullRequest,
		SubjectTitle:  "Add widget support",
		SubjectURL:    "https://api.github.com/repos/acme/widgets/pulls/42",
		SubjectNumber: 42,
		SubjectState:  "open",
		SubjectRaw:    `{"title":"Add widget support"}`,
		AuthorLogin:   "octocat",
		Repository: model.RemoteRepository{
			GithubID: 1001,
			FullName: "acme/widgets",
			Owner:    "acme",
			Name:     "widgets",
			URL:      "https://github.com/acme/widgets",
		},
	}
}

// seedNotification reconciles a fixture into the store and returns the
// resulting row.
func seedNotification(
	t *testing.T,
	s *SQLiteStore,
	userID int64,
	githubID string,
	updatedAt *time.Time,
) *model.Notification {
	t.Helper()

	n, err := s.Reconcile(context.Background(), userID, remoteFixture(githubID, updatedAt))
	if err != nil {
		t.Fatalf("seeding notification %s: %v", githubID, err)
	}
	return n
}

// assertSortInvariant checks the effective-sort-date derivation:
// equal to the snooze wake time while snoozed, otherwise the remote
// activity time falling back to the import time.
func assertSortInvariant(t *testing.T, n *model.Notification) {
	t.Helper()

	if n.SnoozedUntil != nil {
		if !n.EffectiveSortDate.Equal(*n.SnoozedUntil) {
			t.Errorf("effective_sort_date = %v, want snoozed_until %v",
				n.EffectiveSortDate, *n.SnoozedUntil)
		}
		return
	}
	want := n.ImportedAt
	if n.GithubUpdatedAt != nil {
		want = *n.GithubUpdatedAt
	}
	if !n.EffectiveSortDate.Equal(want) {
		t.Errorf("effective_sort_date = %v, want %v", n.EffectiveSortDate, want)
	}
}

// timePtr returns a pointer to t.
func timePtr(t time.Time) *time.Time {
	return &t
}

// baseTime returns a fixed whole-second UTC anchor for tests.
func baseTime() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

// uniqueID generates distinct remote ids within a test.
func uniqueID(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}
