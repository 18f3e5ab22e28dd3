package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/gh-inbox/internal/model"
)

// eligibilityWhere builds the WHERE tail shared by the cleanup count and
// delete statements. Eligible rows are archived or muted, with their
// last real activity (not the snooze-adjusted sort date) older than the
// cutoff, minus any protected rows.
func eligibilityWhere(userID int64, policy CleanupPolicy) (string, []any) {
	conditions := []string{
		"user_id = ?",
		"(archived = 1 OR muted = 1)",
		"COALESCE(github_updated_at, imported_at) < ?",
	}
	args := []any{userID, policy.CutoffDate.UTC()}

	if policy.ProtectStarred {
		conditions = append(conditions, "starred = 0")
	}
	if policy.ProtectTagged {
		conditions = append(conditions,
			"NOT EXISTS (SELECT 1 FROM tag_assignments"+
				" WHERE tag_assignments.entity_type = ?"+
				" AND tag_assignments.entity_id = notifications.id)")
		args = append(args, model.EntityNotification)
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// EligibleForCleanupCount returns how many notifications the retention
// sweep would delete under the given policy.
func (s *SQLiteStore) EligibleForCleanupCount(
	ctx context.Context,
	userID int64,
	policy CleanupPolicy,
) (int64, error) {
	where, args := eligibilityWhere(userID, policy)

	var count int64
	err := s.execRetry(ctx, func() error {
		return s.db.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM notifications"+where, args...)
	})
	if err != nil {
		return 0, fmt.Errorf("counting cleanup-eligible notifications: %w", err)
	}
	return count, nil
}

// DeleteEligible removes up to batchSize eligible notifications together
// with their tag assignments, oldest first, and returns how many rows
// were deleted.
func (s *SQLiteStore) DeleteEligible(
	ctx context.Context,
	userID int64,
	policy CleanupPolicy,
	batchSize int,
) (int64, error) {
	if batchSize <= 0 {
		return 0, nil
	}
	where, args := eligibilityWhere(userID, policy)
	selectIDs := "SELECT id FROM notifications" + where +
		fmt.Sprintf(" ORDER BY COALESCE(github_updated_at, imported_at) LIMIT %d", batchSize)

	var deleted int64
	err := s.execRetry(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		var ids []int64
		if err := tx.SelectContext(ctx, &ids, selectIDs, args...); err != nil {
			return fmt.Errorf("selecting eligible notifications: %w", err)
		}
		if len(ids) == 0 {
			deleted = 0
			return tx.Commit()
		}

		placeholders := make([]string, len(ids))
		idArgs := make([]any, 0, len(ids)+1)
		idArgs = append(idArgs, model.EntityNotification)
		for i, id := range ids {
			placeholders[i] = "?"
			idArgs = append(idArgs, id)
		}
		in := strings.Join(placeholders, ", ")

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM tag_assignments WHERE entity_type = ? AND entity_id IN ("+in+")",
			idArgs...); err != nil {
			return fmt.Errorf("deleting tag assignments: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			"DELETE FROM notifications WHERE id IN ("+in+")", idArgs[1:]...)
		if err != nil {
			return fmt.Errorf("deleting notifications: %w", err)
		}
		deleted, _ = result.RowsAffected()

		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("running cleanup sweep: %w", err)
	}
	return deleted, nil
}

// WipeAllRemoteData deletes every synced row for the user in one
// transaction: notifications and their tag assignments, pull requests,
// repositories, and sync state. Tags themselves survive; only their
// assignments to synced rows go.
func (s *SQLiteStore) WipeAllRemoteData(ctx context.Context, userID int64) error {
	err := s.execRetry(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM tag_assignments
			WHERE entity_type = ?
			AND entity_id IN (SELECT id FROM notifications WHERE user_id = ?)`,
			model.EntityNotification, userID); err != nil {
			return fmt.Errorf("wiping tag assignments: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM notifications WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("wiping notifications: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM pull_requests WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("wiping pull requests: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM repositories WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("wiping repositories: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM sync_state WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("wiping sync state: %w", err)
		}

		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("wiping remote data for user %d: %w", userID, err)
	}
	return nil
}
