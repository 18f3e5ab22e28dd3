package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nhle/gh-inbox/internal/model"
)

// GetSyncState retrieves the user's sync progress row.
func (s *SQLiteStore) GetSyncState(ctx context.Context, userID int64) (*model.SyncState, error) {
	var state model.SyncState
	err := s.execRetry(ctx, func() error {
		return s.db.QueryRowxContext(ctx, `
			SELECT user_id, last_polled_at, last_etag, oldest_synced_at, newest_synced_at
			FROM sync_state WHERE user_id = ?`, userID,
		).Scan(&state.UserID, &state.LastPolledAt, &state.LastEtag,
			&state.OldestSyncedAt, &state.NewestSyncedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync state for user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting sync state for user %d: %w", userID, err)
	}
	return &state, nil
}

// UpsertSyncState inserts or replaces the user's sync progress row.
func (s *SQLiteStore) UpsertSyncState(ctx context.Context, state model.SyncState) error {
	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO sync_state (user_id, last_polled_at, last_etag, oldest_synced_at, newest_synced_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				last_polled_at = excluded.last_polled_at,
				last_etag = excluded.last_etag,
				oldest_synced_at = excluded.oldest_synced_at,
				newest_synced_at = excluded.newest_synced_at`,
			state.UserID, state.LastPolledAt, state.LastEtag,
			state.OldestSyncedAt, state.NewestSyncedAt,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upserting sync state for user %d: %w", state.UserID, err)
	}
	return nil
}
