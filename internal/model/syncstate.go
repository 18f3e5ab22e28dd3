package model

import "time"

// SyncState tracks per-user sync progress against the remote feed.
// One row per user.
type SyncState struct {
	UserID int64 `json:"user_id" db:"user_id"`

	// LastPolledAt is when the last successful sync pass completed.
	LastPolledAt *time.Time `json:"last_polled_at,omitempty" db:"last_polled_at"`

	// LastEtag is the conditional-request token returned by the remote
	// on the last successful poll.
	LastEtag string `json:"last_etag" db:"last_etag"`

	// OldestSyncedAt and NewestSyncedAt bound the remote activity window
	// that has been ingested so far.
	OldestSyncedAt *time.Time `json:"oldest_synced_at,omitempty" db:"oldest_synced_at"`
	NewestSyncedAt *time.Time `json:"newest_synced_at,omitempty" db:"newest_synced_at"`
}
