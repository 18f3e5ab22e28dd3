package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/gh-inbox/internal/model"
)

// computeResetDecision decides whether incoming remote activity should
// pull a notification back into view by clearing archived and is_read.
// Muting is a hard override: a muted row is never reset. Otherwise the
// row resets exactly when the remote reports an activity timestamp the
// local row has not seen yet.
func computeResetDecision(existing *model.Notification, incoming model.RemoteNotification) bool {
	if existing.Muted {
		return false
	}
	if incoming.UpdatedAt == nil {
		return false
	}
	if existing.GithubUpdatedAt == nil {
		return true
	}
	return !existing.GithubUpdatedAt.Equal(*incoming.UpdatedAt)
}

// Reconcile merges one remote notification into the local store. New
// threads are inserted with clean triage state; existing threads get
// their remote-owned metadata written through without touching triage
// decisions, then conditionally reset per computeResetDecision. The
// fully reconciled row is re-read and returned, since the reset is a
// separate statement from the write-through.
func (s *SQLiteStore) Reconcile(
	ctx context.Context,
	userID int64,
	remote model.RemoteNotification,
) (*model.Notification, error) {
	if remote.GithubID == "" {
		return nil, fmt.Errorf("remote notification has no github id")
	}

	repoID, err := s.upsertRepository(ctx, userID, remote.Repository)
	if err != nil {
		return nil, fmt.Errorf("reconciling notification %s: %w", remote.GithubID, err)
	}

	var pullRequestID *int64
	if remote.SubjectType == model.SubjectPullRequest && remote.SubjectURL != "" {
		id, err := s.upsertPullRequest(ctx, userID, remote)
		if err != nil {
			return nil, fmt.Errorf("reconciling notification %s: %w", remote.GithubID, err)
		}
		pullRequestID = &id
	}

	existing, err := s.GetNotification(ctx, userID, remote.GithubID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		if err := s.insertNotification(ctx, userID, repoID, pullRequestID, remote); err != nil {
			return nil, fmt.Errorf("inserting notification %s: %w", remote.GithubID, err)
		}
		return s.GetNotification(ctx, userID, remote.GithubID)
	}

	if err := s.writeThroughMetadata(ctx, existing.ID, repoID, pullRequestID, remote); err != nil {
		return nil, fmt.Errorf("updating notification %s: %w", remote.GithubID, err)
	}

	// The reset decision compares against the pre-update timestamp, so
	// it is computed from the row fetched before the write-through.
	if computeResetDecision(existing, remote) {
		err := s.execRetry(ctx, func() error {
			_, execErr := s.db.ExecContext(ctx,
				"UPDATE notifications SET archived = 0, is_read = 0 WHERE id = ?",
				existing.ID,
			)
			return execErr
		})
		if err != nil {
			return nil, fmt.Errorf("resetting notification %s: %w", remote.GithubID, err)
		}
	}

	return s.GetNotification(ctx, userID, remote.GithubID)
}

// insertNotification creates a fresh row with all triage flags clear.
// The sort date derives from the remote activity time, falling back to
// the import time when the remote provided none.
func (s *SQLiteStore) insertNotification(
	ctx context.Context,
	userID int64,
	repoID int64,
	pullRequestID *int64,
	remote model.RemoteNotification,
) error {
	importedAt := time.Now().UTC()
	effectiveSortDate := importedAt
	var githubUpdatedAt *time.Time
	if remote.UpdatedAt != nil {
		t := remote.UpdatedAt.UTC()
		githubUpdatedAt = &t
		effectiveSortDate = t
	}

	return s.execRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO notifications (
				user_id, github_id, repository_id, pull_request_id,
				subject_type, subject_title, subject_url, subject_number,
				subject_state, subject_merged, subject_state_reason,
				subject_fetched_at, subject_raw,
				author_login, reason, github_unread, github_updated_at,
				imported_at, effective_sort_date
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, remote.GithubID, repoID, pullRequestID,
			remote.SubjectType, remote.SubjectTitle, remote.SubjectURL, remote.SubjectNumber,
			remote.SubjectState, boolToInt(remote.SubjectMerged), remote.SubjectStateReason,
			remote.SubjectFetchedAt, remote.SubjectRaw,
			remote.AuthorLogin, remote.Reason, boolToInt(remote.Unread), githubUpdatedAt,
			importedAt, effectiveSortDate,
		)
		return err
	})
}

// writeThroughMetadata updates the remote-owned fields of an existing
// row in one statement. The sort date is guarded in SQL: while a snooze
// window is set it stays exactly as it was, even though
// github_updated_at itself advances.
func (s *SQLiteStore) writeThroughMetadata(
	ctx context.Context,
	notificationID int64,
	repoID int64,
	pullRequestID *int64,
	remote model.RemoteNotification,
) error {
	var githubUpdatedAt *time.Time
	if remote.UpdatedAt != nil {
		t := remote.UpdatedAt.UTC()
		githubUpdatedAt = &t
	}

	return s.execRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE notifications SET
				repository_id = ?, pull_request_id = ?,
				subject_type = ?, subject_title = ?, subject_url = ?,
				subject_number = ?, subject_state = ?, subject_merged = ?,
				subject_state_reason = ?, subject_fetched_at = ?, subject_raw = ?,
				author_login = ?, reason = ?, github_unread = ?,
				github_updated_at = ?,
				effective_sort_date = CASE
					WHEN snoozed_until IS NOT NULL THEN effective_sort_date
					ELSE COALESCE(?, imported_at)
				END
			WHERE id = ?`,
			repoID, pullRequestID,
			remote.SubjectType, remote.SubjectTitle, remote.SubjectURL,
			remote.SubjectNumber, remote.SubjectState, boolToInt(remote.SubjectMerged),
			remote.SubjectStateReason, remote.SubjectFetchedAt, remote.SubjectRaw,
			remote.AuthorLogin, remote.Reason, boolToInt(remote.Unread),
			githubUpdatedAt,
			githubUpdatedAt,
			notificationID,
		)
		return err
	})
}

// upsertRepository inserts or refreshes the repository row referenced by
// a remote notification and returns its local id.
func (s *SQLiteStore) upsertRepository(
	ctx context.Context,
	userID int64,
	repo model.RemoteRepository,
) (int64, error) {
	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO repositories (user_id, github_id, full_name, owner, name, private, url)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, github_id) DO UPDATE SET
				full_name = excluded.full_name,
				owner = excluded.owner,
				name = excluded.name,
				private = excluded.private,
				url = excluded.url`,
			userID, repo.GithubID, repo.FullName, repo.Owner, repo.Name,
			boolToInt(repo.Private), repo.URL,
		)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("upserting repository %s: %w", repo.FullName, err)
	}

	var id int64
	err = s.execRetry(ctx, func() error {
		return s.db.GetContext(ctx, &id,
			"SELECT id FROM repositories WHERE user_id = ? AND github_id = ?",
			userID, repo.GithubID,
		)
	})
	if err != nil {
		return 0, fmt.Errorf("reading repository %s: %w", repo.FullName, err)
	}
	return id, nil
}

// upsertPullRequest inserts or refreshes the pull request row for a
// PR-subject notification and returns its local id. The subject URL is
// the stable remote key.
func (s *SQLiteStore) upsertPullRequest(
	ctx context.Context,
	userID int64,
	remote model.RemoteNotification,
) (int64, error) {
	var updatedAt *time.Time
	if remote.UpdatedAt != nil {
		t := remote.UpdatedAt.UTC()
		updatedAt = &t
	}

	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO pull_requests (user_id, github_id, number, state, merged, title, url, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, github_id) DO UPDATE SET
				number = excluded.number,
				state = excluded.state,
				merged = excluded.merged,
				title = excluded.title,
				url = excluded.url,
				updated_at = excluded.updated_at`,
			userID, remote.SubjectURL, remote.SubjectNumber, remote.SubjectState,
			boolToInt(remote.SubjectMerged), remote.SubjectTitle, remote.SubjectURL,
			updatedAt,
		)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("upserting pull request %s: %w", remote.SubjectURL, err)
	}

	var id int64
	err = s.execRetry(ctx, func() error {
		return s.db.GetContext(ctx, &id,
			"SELECT id FROM pull_requests WHERE user_id = ? AND github_id = ?",
			userID, remote.SubjectURL,
		)
	})
	if err != nil {
		return 0, fmt.Errorf("reading pull request %s: %w", remote.SubjectURL, err)
	}
	return id, nil
}
