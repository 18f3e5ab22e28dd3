package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/gh-inbox/internal/model"
)

// seedAged reconciles a row with the given activity time and applies the
// listed transitions.
func seedAged(
	t *testing.T,
	s *SQLiteStore,
	userID int64,
	githubID string,
	activity time.Time,
	kinds ...TransitionKind,
) *model.Notification {
	t.Helper()

	n := seedNotification(t, s, userID, githubID, timePtr(activity))
	for _, k := range kinds {
		var err error
		n, err = s.ApplyTransition(context.Background(), userID, githubID, Transition{Kind: k})
		if err != nil {
			t.Fatalf("applying transition %d to %s: %v", k, githubID, err)
		}
	}
	return n
}

func TestEligibleForCleanupCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := baseTime()
	recent := old.Add(60 * 24 * time.Hour)
	cutoff := old.Add(30 * 24 * time.Hour)

	seedAged(t, s, 1, "old-archived", old, TransitionArchive)
	seedAged(t, s, 1, "old-muted", old, TransitionMute)
	seedAged(t, s, 1, "old-plain", old)
	seedAged(t, s, 1, "recent-archived", recent, TransitionArchive)
	seedAged(t, s, 1, "old-archived-starred", old, TransitionArchive, TransitionStar)
	seedAged(t, s, 2, "other-user-old", old, TransitionArchive)

	policy := CleanupPolicy{CutoffDate: cutoff}
	count, err := s.EligibleForCleanupCount(ctx, 1, policy)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	// old-archived, old-muted, old-archived-starred.
	if count != 3 {
		t.Errorf("eligible = %d, want 3", count)
	}

	policy.ProtectStarred = true
	count, err = s.EligibleForCleanupCount(ctx, 1, policy)
	if err != nil {
		t.Fatalf("counting with starred protection: %v", err)
	}
	if count != 2 {
		t.Errorf("eligible = %d, want 2 with starred protected", count)
	}
}

func TestEligibleForCleanupCountProtectsTagged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := baseTime()
	cutoff := old.Add(30 * 24 * time.Hour)

	tagged := seedAged(t, s, 1, "old-tagged", old, TransitionArchive)
	seedAged(t, s, 1, "old-plain-archived", old, TransitionArchive)

	tag, err := s.CreateTag(ctx, model.Tag{UserID: 1, Name: "Keep"})
	if err != nil {
		t.Fatalf("creating tag: %v", err)
	}
	if err := s.AssignTag(ctx, 1, tag.ID, tagged.ID); err != nil {
		t.Fatalf("assigning tag: %v", err)
	}

	policy := CleanupPolicy{CutoffDate: cutoff, ProtectTagged: true}
	count, err := s.EligibleForCleanupCount(ctx, 1, policy)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 1 {
		t.Errorf("eligible = %d, want 1 with tagged protected", count)
	}
}

func TestDeleteEligibleRespectsBatchSize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := baseTime()
	cutoff := old.Add(30 * 24 * time.Hour)

	for i := 0; i < 5; i++ {
		seedAged(t, s, 1, uniqueID("sweep", i), old.Add(time.Duration(i)*time.Minute), TransitionArchive)
	}

	policy := CleanupPolicy{CutoffDate: cutoff}
	deleted, err := s.DeleteEligible(ctx, 1, policy, 3)
	if err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	remaining, err := s.EligibleForCleanupCount(ctx, 1, policy)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}

	// Oldest rows go first.
	if _, err := s.GetNotification(ctx, 1, "sweep-0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest row should be deleted first, got %v", err)
	}
	if _, err := s.GetNotification(ctx, 1, "sweep-4"); err != nil {
		t.Errorf("newest eligible row should survive the batch, got %v", err)
	}
}

func TestDeleteEligibleRemovesTagAssignments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := baseTime()

	n := seedAged(t, s, 1, "old-archived", old, TransitionArchive)
	tag, err := s.CreateTag(ctx, model.Tag{UserID: 1, Name: "Stale"})
	if err != nil {
		t.Fatalf("creating tag: %v", err)
	}
	if err := s.AssignTag(ctx, 1, tag.ID, n.ID); err != nil {
		t.Fatalf("assigning tag: %v", err)
	}

	policy := CleanupPolicy{CutoffDate: old.Add(24 * time.Hour)}
	deleted, err := s.DeleteEligible(ctx, 1, policy, 10)
	if err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	var assignments int
	if err := s.db.Get(&assignments,
		"SELECT COUNT(*) FROM tag_assignments WHERE entity_id = ?", n.ID); err != nil {
		t.Fatalf("counting assignments: %v", err)
	}
	if assignments != 0 {
		t.Errorf("assignments = %d, want 0 after delete", assignments)
	}
}

func TestDeleteEligibleZeroBatch(t *testing.T) {
	s := newTestStore(t)

	deleted, err := s.DeleteEligible(context.Background(), 1,
		CleanupPolicy{CutoffDate: time.Now()}, 0)
	if err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestWipeAllRemoteData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := seedNotification(t, s, 1, "thread-1", timePtr(baseTime()))
	tag, err := s.CreateTag(ctx, model.Tag{UserID: 1, Name: "Important"})
	if err != nil {
		t.Fatalf("creating tag: %v", err)
	}
	if err := s.AssignTag(ctx, 1, tag.ID, n.ID); err != nil {
		t.Fatalf("assigning tag: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := s.UpsertSyncState(ctx, model.SyncState{UserID: 1, LastPolledAt: &now, LastEtag: "abc"}); err != nil {
		t.Fatalf("writing sync state: %v", err)
	}

	// Another user's data must survive.
	seedNotification(t, s, 2, "thread-2", timePtr(baseTime()))

	if err := s.WipeAllRemoteData(ctx, 1); err != nil {
		t.Fatalf("wiping: %v", err)
	}

	if _, err := s.GetNotification(ctx, 1, "thread-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("notification should be wiped, got %v", err)
	}
	if _, err := s.GetSyncState(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("sync state should be wiped, got %v", err)
	}

	tags, err := s.GetTags(ctx, 1)
	if err != nil {
		t.Fatalf("listing tags: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("tags must survive a wipe, got %d", len(tags))
	}

	var repos, prs, assignments int
	if err := s.db.Get(&repos, "SELECT COUNT(*) FROM repositories WHERE user_id = 1"); err != nil {
		t.Fatalf("counting repositories: %v", err)
	}
	if err := s.db.Get(&prs, "SELECT COUNT(*) FROM pull_requests WHERE user_id = 1"); err != nil {
		t.Fatalf("counting pull requests: %v", err)
	}
	if err := s.db.Get(&assignments, "SELECT COUNT(*) FROM tag_assignments"); err != nil {
		t.Fatalf("counting assignments: %v", err)
	}
	if repos != 0 || prs != 0 || assignments != 0 {
		t.Errorf("synced rows remain: repos=%d prs=%d assignments=%d", repos, prs, assignments)
	}

	if _, err := s.GetNotification(ctx, 2, "thread-2"); err != nil {
		t.Errorf("other user's data must survive, got %v", err)
	}
}
