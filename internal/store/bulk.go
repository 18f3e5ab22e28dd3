package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ApplyBulkTransitionByIDs applies one transition to every listed
// notification owned by the user and returns the affected row count. An
// empty id list short-circuits to zero without issuing a statement.
// Time-stamped transitions (snooze) share a single wall-clock value
// across the whole batch.
func (s *SQLiteStore) ApplyBulkTransitionByIDs(
	ctx context.Context,
	userID int64,
	t Transition,
	ids []int64,
) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	clause, clauseArgs, err := transitionClause(t, time.Now())
	if err != nil {
		return 0, err
	}

	placeholders := make([]string, len(ids))
	args := append([]any{}, clauseArgs...)
	args = append(args, userID)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := "UPDATE notifications SET " + clause +
		" WHERE user_id = ? AND id IN (" + strings.Join(placeholders, ", ") + ")"

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
		return 0, fmt.Errorf("applying bulk transition: %w", err)
	}
	return affected, nil
}

// ApplyBulkTransitionByFilter applies one transition to every row
// matching a compiled filter. The filter's predicates may reference
// joined tables, so the update targets an id subselect rather than
// repeating the predicates on the UPDATE itself.
func (s *SQLiteStore) ApplyBulkTransitionByFilter(
	ctx context.Context,
	userID int64,
	t Transition,
	fd FilterDescription,
) (int64, error) {
	clause, clauseArgs, err := transitionClause(t, time.Now())
	if err != nil {
		return 0, err
	}

	subselect, subArgs := buildIDSubselect(userID, fd)
	query := "UPDATE notifications SET " + clause +
		" WHERE id IN (" + subselect + ")"
	args := append(append([]any{}, clauseArgs...), subArgs...)

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
		return 0, fmt.Errorf("applying bulk transition by filter: %w", err)
	}
	return affected, nil
}
