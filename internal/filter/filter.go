// Package filter builds compiled filter descriptions for notification
// queries. It is the structured contract the text-query parser targets:
// the parser turns `in:inbox repo:acme/widgets review` into an Options
// value, and Options compiles to the join/predicate/parameter form the
// store executes.
package filter

import (
	"time"

	"github.com/nhle/gh-inbox/internal/model"
	"github.com/nhle/gh-inbox/internal/store"
)

// Bucket is a mutually exclusive top-level membership predicate. Buckets
// partition rows by current state and wall clock, unlike the independent
// triage flags: a snoozed row whose window has passed is back in the
// inbox without any background job touching it.
type Bucket int

const (
	// BucketInbox holds rows that are not archived, muted, or
	// filtered, and not inside an active snooze window.
	BucketInbox Bucket = iota

	// BucketSnoozed holds rows inside an active snooze window that are
	// not archived, muted, or filtered.
	BucketSnoozed

	// BucketArchive holds archived rows.
	BucketArchive

	// BucketFiltered holds filtered, non-archived rows.
	BucketFiltered

	// BucketAnywhere applies no bucket restriction.
	BucketAnywhere
)

// Options is a structured notification filter. Zero-valued fields are
// not applied.
type Options struct {
	Bucket Bucket

	// Repo matches the repository full name (owner/name).
	Repo string

	// Org matches the repository owner.
	Org string

	// Type matches the subject type (model.Subject* constants).
	Type string

	// Reason matches the remote reason code.
	Reason string

	// TagID restricts to notifications carrying the tag.
	TagID string

	// Starred restricts by the starred flag when non-nil.
	Starred *bool

	// Search is a substring match over the subject title.
	Search string

	Limit  int
	Offset int

	// IncludeSubjectRaw selects the raw subject payload column.
	IncludeSubjectRaw bool

	// Now is the wall clock used for snooze-window predicates. Zero
	// means time.Now(); tests pin it.
	Now time.Time
}

// Description compiles the options into the store's filter form.
func (o Options) Description() store.FilterDescription {
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	var fd store.FilterDescription
	fd.Limit = o.Limit
	fd.Offset = o.Offset
	fd.IncludeSubjectRaw = o.IncludeSubjectRaw

	switch o.Bucket {
	case BucketInbox:
		fd.Predicates = append(fd.Predicates,
			"notifications.archived = 0 AND notifications.muted = 0"+
				" AND notifications.filtered = 0"+
				" AND (notifications.snoozed_until IS NULL OR notifications.snoozed_until <= ?)")
		fd.Params = append(fd.Params, now)
	case BucketSnoozed:
		fd.Predicates = append(fd.Predicates,
			"notifications.snoozed_until IS NOT NULL AND notifications.snoozed_until > ?"+
				" AND notifications.archived = 0 AND notifications.muted = 0"+
				" AND notifications.filtered = 0")
		fd.Params = append(fd.Params, now)
	case BucketArchive:
		fd.Predicates = append(fd.Predicates, "notifications.archived = 1")
	case BucketFiltered:
		fd.Predicates = append(fd.Predicates,
			"notifications.filtered = 1 AND notifications.archived = 0")
	case BucketAnywhere:
	}

	if o.Repo != "" || o.Org != "" {
		fd.Joins = append(fd.Joins,
			"INNER JOIN repositories ON notifications.repository_id = repositories.id")
		if o.Repo != "" {
			fd.Predicates = append(fd.Predicates, "repositories.full_name = ?")
			fd.Params = append(fd.Params, o.Repo)
		}
		if o.Org != "" {
			fd.Predicates = append(fd.Predicates, "repositories.owner = ?")
			fd.Params = append(fd.Params, o.Org)
		}
	}

	if o.TagID != "" {
		fd.Joins = append(fd.Joins,
			"INNER JOIN tag_assignments ON tag_assignments.entity_id = notifications.id")
		fd.Predicates = append(fd.Predicates,
			"tag_assignments.entity_type = ?", "tag_assignments.tag_id = ?")
		fd.Params = append(fd.Params, model.EntityNotification, o.TagID)
	}

	if o.Type != "" {
		fd.Predicates = append(fd.Predicates, "notifications.subject_type = ?")
		fd.Params = append(fd.Params, o.Type)
	}
	if o.Reason != "" {
		fd.Predicates = append(fd.Predicates, "notifications.reason = ?")
		fd.Params = append(fd.Params, o.Reason)
	}
	if o.Starred != nil {
		fd.Predicates = append(fd.Predicates, "notifications.starred = ?")
		if *o.Starred {
			fd.Params = append(fd.Params, 1)
		} else {
			fd.Params = append(fd.Params, 0)
		}
	}
	if o.Search != "" {
		fd.Predicates = append(fd.Predicates, "notifications.subject_title LIKE ?")
		fd.Params = append(fd.Params, "%"+o.Search+"%")
	}

	return fd
}
