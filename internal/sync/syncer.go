// Package sync drives periodic reconciliation of the remote notification
// feed into the local store. An external scheduler calls Run per user;
// there is no background scheduling here.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/gh-inbox/internal/model"
	"github.com/nhle/gh-inbox/internal/store"
)

// ErrNotModified is returned by a Feed when the remote reports no
// changes since the presented etag.
var ErrNotModified = errors.New("feed not modified")

// Feed is the remote notification client. Implementations fetch the
// user's feed pages updated since the given time, honoring the etag from
// the previous successful poll, and return the new etag alongside the
// payloads.
type Feed interface {
	Fetch(ctx context.Context, since *time.Time, etag string) ([]model.RemoteNotification, string, error)
}

// Result summarizes one sync pass.
type Result struct {
	Fetched    int
	Reconciled int
	Failed     int
}

// Syncer runs sync passes against a store.
type Syncer struct {
	store store.Store
	feed  Feed
	log   *zap.Logger
}

// New creates a Syncer. A nil logger disables logging.
func New(s store.Store, feed Feed, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{store: s, feed: feed, log: log}
}

// Run executes one sync pass for the user: fetch everything updated
// since the last poll, reconcile each item, then record the new sync
// state. Individual reconcile failures are logged and counted but do
// not abort the pass; fetch failures do.
func (s *Syncer) Run(ctx context.Context, userID int64) (Result, error) {
	var result Result

	state, err := s.store.GetSyncState(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return result, fmt.Errorf("loading sync state: %w", err)
	}

	var since *time.Time
	var etag string
	if state != nil {
		since = state.LastPolledAt
		etag = state.LastEtag
	}

	remotes, newEtag, err := s.feed.Fetch(ctx, since, etag)
	if err != nil {
		if errors.Is(err, ErrNotModified) {
			s.log.Debug("feed not modified", zap.Int64("user_id", userID))
			return result, s.recordPoll(ctx, userID, state, etag, nil)
		}
		return result, fmt.Errorf("fetching feed: %w", err)
	}
	result.Fetched = len(remotes)

	var oldest, newest *time.Time
	for _, remote := range remotes {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := s.store.Reconcile(ctx, userID, remote); err != nil {
			result.Failed++
			s.log.Warn("reconcile failed",
				zap.Int64("user_id", userID),
				zap.String("github_id", remote.GithubID),
				zap.Error(err),
			)
			continue
		}
		result.Reconciled++
		if remote.UpdatedAt != nil {
			if oldest == nil || remote.UpdatedAt.Before(*oldest) {
				oldest = remote.UpdatedAt
			}
			if newest == nil || remote.UpdatedAt.After(*newest) {
				newest = remote.UpdatedAt
			}
		}
	}

	if err := s.recordPoll(ctx, userID, state, newEtag, newestWindow(state, oldest, newest)); err != nil {
		return result, err
	}

	s.log.Info("sync pass complete",
		zap.Int64("user_id", userID),
		zap.Int("fetched", result.Fetched),
		zap.Int("reconciled", result.Reconciled),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// window is the synced-activity time span carried in sync state.
type window struct {
	oldest *time.Time
	newest *time.Time
}

// newestWindow merges the previous sync state's activity window with the
// bounds observed this pass.
func newestWindow(state *model.SyncState, oldest, newest *time.Time) *window {
	w := &window{oldest: oldest, newest: newest}
	if state == nil {
		return w
	}
	if state.OldestSyncedAt != nil && (w.oldest == nil || state.OldestSyncedAt.Before(*w.oldest)) {
		w.oldest = state.OldestSyncedAt
	}
	if state.NewestSyncedAt != nil && (w.newest == nil || state.NewestSyncedAt.After(*w.newest)) {
		w.newest = state.NewestSyncedAt
	}
	return w
}

// recordPoll persists the post-pass sync state.
func (s *Syncer) recordPoll(
	ctx context.Context,
	userID int64,
	prev *model.SyncState,
	etag string,
	w *window,
) error {
	now := time.Now().UTC()
	next := model.SyncState{
		UserID:       userID,
		LastPolledAt: &now,
		LastEtag:     etag,
	}
	if w != nil {
		next.OldestSyncedAt = w.oldest
		next.NewestSyncedAt = w.newest
	} else if prev != nil {
		next.OldestSyncedAt = prev.OldestSyncedAt
		next.NewestSyncedAt = prev.NewestSyncedAt
	}

	if err := s.store.UpsertSyncState(ctx, next); err != nil {
		return fmt.Errorf("recording sync state: %w", err)
	}
	return nil
}
