package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/gh-inbox/internal/model"
)

// notificationColumns is the published column order for notification
// queries. subject_raw is inserted after subject_fetched_at when
// requested; scanNotification must track that position exactly, since a
// shifted column silently misreads every later field.
var notificationColumns = []string{
	"notifications.id",
	"notifications.user_id",
	"notifications.github_id",
	"notifications.repository_id",
	"notifications.pull_request_id",
	"notifications.subject_type",
	"notifications.subject_title",
	"notifications.subject_url",
	"notifications.subject_number",
	"notifications.subject_state",
	"notifications.subject_merged",
	"notifications.subject_state_reason",
	"notifications.subject_fetched_at",
	// subject_raw goes here when IncludeSubjectRaw is set
	"notifications.author_login",
	"notifications.reason",
	"notifications.is_read",
	"notifications.archived",
	"notifications.muted",
	"notifications.starred",
	"notifications.filtered",
	"notifications.snoozed_until",
	"notifications.snoozed_at",
	"notifications.github_unread",
	"notifications.github_updated_at",
	"notifications.imported_at",
	"notifications.effective_sort_date",
}

// rawColumnPosition is the index at which subject_raw is spliced into
// notificationColumns.
const rawColumnPosition = 13

// selectColumns returns the projection list, optionally including the
// subject_raw payload column.
func selectColumns(includeRaw bool) string {
	if !includeRaw {
		return strings.Join(notificationColumns, ", ")
	}
	cols := make([]string, 0, len(notificationColumns)+1)
	cols = append(cols, notificationColumns[:rawColumnPosition]...)
	cols = append(cols, "notifications.subject_raw")
	cols = append(cols, notificationColumns[rawColumnPosition:]...)
	return strings.Join(cols, ", ")
}

// buildWhere assembles the FROM/WHERE tail shared by fetch, count, and
// bulk-subselect statements. The user-id scope predicate always comes
// first; caller predicates follow in order with their params.
func buildWhere(userID int64, fd FilterDescription) (string, []any) {
	var sb strings.Builder
	sb.WriteString(" FROM notifications")
	for _, join := range fd.Joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}

	predicates := make([]string, 0, len(fd.Predicates)+1)
	predicates = append(predicates, "notifications.user_id = ?")
	args := make([]any, 0, len(fd.Params)+1)
	args = append(args, userID)
	for _, p := range fd.Predicates {
		predicates = append(predicates, "("+p+")")
	}
	args = append(args, fd.Params...)

	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(predicates, " AND "))
	return sb.String(), args
}

// buildFetchQuery compiles the bounded row-fetch statement: fixed
// ordering by effective sort date, then import recency, then pagination.
func buildFetchQuery(userID int64, fd FilterDescription) (string, []any) {
	where, args := buildWhere(userID, fd)

	query := "SELECT " + selectColumns(fd.IncludeSubjectRaw) + where
	if len(fd.Joins) > 0 {
		query += " GROUP BY notifications.id"
	}
	query += " ORDER BY notifications.effective_sort_date DESC, notifications.imported_at DESC"
	if fd.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", fd.Limit)
	}
	if fd.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", fd.Offset)
	}
	return query, args
}

// buildCountQuery compiles the matching total-count statement. No
// ordering or pagination; joins may fan rows out, so count distinct ids.
func buildCountQuery(userID int64, fd FilterDescription) (string, []any) {
	where, args := buildWhere(userID, fd)
	return "SELECT COUNT(DISTINCT notifications.id)" + where, args
}

// buildIDSubselect compiles the id subselect used by bulk updates.
// Predicates may reference joined tables that an UPDATE target cannot
// join against, so bulk statements go through `id IN (SELECT ...)`.
func buildIDSubselect(userID int64, fd FilterDescription) (string, []any) {
	where, args := buildWhere(userID, fd)
	return "SELECT notifications.id" + where, args
}

// scanner abstracts *sqlx.Row and *sqlx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanNotification reads one notification row in the published column
// order, honoring the conditional subject_raw position.
func scanNotification(row scanner, includeRaw bool) (model.Notification, error) {
	var (
		n                model.Notification
		pullRequestID    *int64
		subjectFetchedAt *time.Time
		snoozedUntil     *time.Time
		snoozedAt        *time.Time
		githubUpdatedAt  *time.Time
		subjectMerged    int
		isRead           int
		archived         int
		muted            int
		starred          int
		filtered         int
		githubUnread     int
	)

	dest := []any{
		&n.ID, &n.UserID, &n.GithubID, &n.RepositoryID, &pullRequestID,
		&n.SubjectType, &n.SubjectTitle, &n.SubjectURL, &n.SubjectNumber,
		&n.SubjectState, &subjectMerged, &n.SubjectStateReason, &subjectFetchedAt,
	}
	if includeRaw {
		dest = append(dest, &n.SubjectRaw)
	}
	dest = append(dest,
		&n.AuthorLogin, &n.Reason,
		&isRead, &archived, &muted, &starred, &filtered,
		&snoozedUntil, &snoozedAt,
		&githubUnread, &githubUpdatedAt, &n.ImportedAt, &n.EffectiveSortDate,
	)

	if err := row.Scan(dest...); err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.PullRequestID = pullRequestID
	n.SubjectFetchedAt = subjectFetchedAt
	n.SnoozedUntil = snoozedUntil
	n.SnoozedAt = snoozedAt
	n.GithubUpdatedAt = githubUpdatedAt
	n.SubjectMerged = subjectMerged != 0
	n.IsRead = isRead != 0
	n.Archived = archived != 0
	n.Muted = muted != 0
	n.Starred = starred != 0
	n.Filtered = filtered != 0
	n.GithubUnread = githubUnread != 0

	return n, nil
}
