package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/gh-inbox/internal/model"
)

// ErrNotFound is returned by lookups when no row matches. Callers must
// check for it explicitly; it is a normal result, not a failure.
var ErrNotFound = errors.New("not found")

// ErrBusyExhausted is returned when the store stayed contended for the
// whole retry budget. Distinct from a hard failure so callers can map it
// to a retryable response.
var ErrBusyExhausted = errors.New("database busy: retry budget exhausted")

// FilterDescription is the compiled form of a notification filter,
// produced by the filter package (and ultimately by the text-query
// parser). Predicates and Params are paired positionally: every `?`
// placeholder across Predicates, in order, consumes the next Param.
type FilterDescription struct {
	// Joins are JOIN fragments appended to the FROM clause, e.g. for
	// tag or repository predicates.
	Joins []string

	// Predicates are boolean SQL fragments combined with AND. The
	// user-id scope predicate is always prepended by the compiler and
	// must not appear here.
	Predicates []string

	// Params are the bound values for the placeholders in Predicates.
	Params []any

	// Limit and Offset paginate the fetch statement. Limit <= 0 means
	// no limit.
	Limit  int
	Offset int

	// IncludeSubjectRaw selects the large subject payload column,
	// omitted by default to keep list transfers small.
	IncludeSubjectRaw bool
}

// TransitionKind enumerates the triage state transitions.
type TransitionKind int

const (
	TransitionMarkRead TransitionKind = iota
	TransitionMarkUnread
	TransitionStar
	TransitionUnstar
	TransitionFilter
	TransitionUnfilter
	TransitionSnooze
	TransitionUnsnooze
	TransitionArchive
	TransitionUnarchive
	TransitionMute
	TransitionUnmute
)

// Transition is a single triage state change. SnoozeUntil is only
// meaningful for TransitionSnooze.
type Transition struct {
	Kind        TransitionKind
	SnoozeUntil time.Time
}

// Snooze builds a snooze transition waking at the given time.
func Snooze(until time.Time) Transition {
	return Transition{Kind: TransitionSnooze, SnoozeUntil: until}
}

// ListResult holds one page of notifications plus the total count of
// rows matching the filter.
type ListResult struct {
	Notifications []model.Notification
	Total         int64
}

// CleanupPolicy controls the retention sweep. A notification is eligible
// when it is archived or muted, its last activity is older than
// CutoffDate, and it is not excluded by a protection flag.
type CleanupPolicy struct {
	CutoffDate     time.Time
	ProtectStarred bool
	ProtectTagged  bool
}

// Store defines the persistence interface for notifications, tags, and
// sync state. All operations are scoped to a user id.
type Store interface {
	// === Notifications ===

	GetNotification(ctx context.Context, userID int64, githubID string) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID int64, fd FilterDescription) (*ListResult, error)
	ApplyTransition(ctx context.Context, userID int64, githubID string, t Transition) (*model.Notification, error)
	ApplyBulkTransitionByIDs(ctx context.Context, userID int64, t Transition, ids []int64) (int64, error)
	ApplyBulkTransitionByFilter(ctx context.Context, userID int64, t Transition, fd FilterDescription) (int64, error)

	// === Sync ===

	Reconcile(ctx context.Context, userID int64, remote model.RemoteNotification) (*model.Notification, error)
	GetSyncState(ctx context.Context, userID int64) (*model.SyncState, error)
	UpsertSyncState(ctx context.Context, state model.SyncState) error

	// === Retention ===

	EligibleForCleanupCount(ctx context.Context, userID int64, policy CleanupPolicy) (int64, error)
	DeleteEligible(ctx context.Context, userID int64, policy CleanupPolicy, batchSize int) (int64, error)
	WipeAllRemoteData(ctx context.Context, userID int64) error

	// === Tags ===

	CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error)
	UpdateTag(ctx context.Context, tag model.Tag) error
	DeleteTag(ctx context.Context, userID int64, tagID string) error
	GetTags(ctx context.Context, userID int64) ([]model.Tag, error)
	GetTagsForNotification(ctx context.Context, userID int64, notificationID int64) ([]model.Tag, error)
	AssignTag(ctx context.Context, userID int64, tagID string, notificationID int64) error
	UnassignTag(ctx context.Context, userID int64, tagID string, notificationID int64) error
}
