package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/gh-inbox/internal/model"
)

// GetNotification retrieves a single notification by its remote id,
// including the raw subject payload.
func (s *SQLiteStore) GetNotification(
	ctx context.Context,
	userID int64,
	githubID string,
) (*model.Notification, error) {
	query := "SELECT " + selectColumns(true) +
		" FROM notifications WHERE user_id = ? AND github_id = ?"

	var n model.Notification
	err := s.execRetry(ctx, func() error {
		row := s.db.QueryRowxContext(ctx, query, userID, githubID)
		var scanErr error
		n, scanErr = scanNotification(row, true)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification %s: %w", githubID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting notification %s: %w", githubID, err)
	}
	return &n, nil
}

// ListNotifications retrieves one page of notifications matching the
// filter, plus the total count of matching rows.
func (s *SQLiteStore) ListNotifications(
	ctx context.Context,
	userID int64,
	fd FilterDescription,
) (*ListResult, error) {
	fetchQuery, fetchArgs := buildFetchQuery(userID, fd)
	countQuery, countArgs := buildCountQuery(userID, fd)

	var notifications []model.Notification
	err := s.execRetry(ctx, func() error {
		rows, err := s.db.QueryxContext(ctx, fetchQuery, fetchArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		notifications = nil
		for rows.Next() {
			n, err := scanNotification(rows, fd.IncludeSubjectRaw)
			if err != nil {
				return err
			}
			notifications = append(notifications, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	var total int64
	err = s.execRetry(ctx, func() error {
		return s.db.GetContext(ctx, &total, countQuery, countArgs...)
	})
	if err != nil {
		return nil, fmt.Errorf("counting notifications: %w", err)
	}

	return &ListResult{Notifications: notifications, Total: total}, nil
}

// transitionClause builds the SET clause for a triage transition. The
// same clause backs single-item and bulk updates so both paths produce
// identical rows; now is stamped once per statement, which gives bulk
// snoozes a single shared snoozed_at.
func transitionClause(t Transition, now time.Time) (string, []any, error) {
	// Clearing a snooze always restores the sort date to the remote
	// activity time, falling back to import time.
	const clearSnooze = "snoozed_until = NULL, snoozed_at = NULL, " +
		"effective_sort_date = COALESCE(github_updated_at, imported_at)"

	switch t.Kind {
	case TransitionMarkRead:
		return "is_read = 1", nil, nil
	case TransitionMarkUnread:
		return "is_read = 0", nil, nil
	case TransitionStar:
		return "starred = 1", nil, nil
	case TransitionUnstar:
		return "starred = 0", nil, nil
	case TransitionFilter:
		return "filtered = 1", nil, nil
	case TransitionUnfilter:
		return "filtered = 0", nil, nil
	case TransitionSnooze:
		if t.SnoozeUntil.IsZero() {
			return "", nil, fmt.Errorf("snooze transition requires a wake time")
		}
		until := t.SnoozeUntil.UTC()
		return "snoozed_until = ?, snoozed_at = ?, effective_sort_date = ?",
			[]any{until, now.UTC(), until}, nil
	case TransitionUnsnooze:
		return clearSnooze, nil, nil
	case TransitionArchive:
		// Archiving is terminal triage; a pending snooze wake-up must
		// not disturb it.
		return "archived = 1, " + clearSnooze, nil, nil
	case TransitionUnarchive:
		return "archived = 0", nil, nil
	case TransitionMute:
		return "muted = 1, " + clearSnooze, nil, nil
	case TransitionUnmute:
		return "muted = 0", nil, nil
	default:
		return "", nil, fmt.Errorf("unknown transition kind %d", t.Kind)
	}
}

// ApplyTransition applies one triage transition to a notification and
// returns the resulting row.
func (s *SQLiteStore) ApplyTransition(
	ctx context.Context,
	userID int64,
	githubID string,
	t Transition,
) (*model.Notification, error) {
	clause, clauseArgs, err := transitionClause(t, time.Now())
	if err != nil {
		return nil, err
	}

	query := "UPDATE notifications SET " + clause +
		" WHERE user_id = ? AND github_id = ?"
	args := append(clauseArgs, userID, githubID)

	var affected int64
	err = s.execRetry(ctx, func() error {
		result, execErr := s.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("applying transition to notification %s: %w", githubID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("notification %s: %w", githubID, ErrNotFound)
	}

	return s.GetNotification(ctx, userID, githubID)
}
