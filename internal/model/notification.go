package model

import "time"

// Reason codes reported by the GitHub notifications API.
const (
	ReasonAssign        = "assign"
	ReasonAuthor        = "author"
	ReasonComment       = "comment"
	ReasonMention       = "mention"
	ReasonReviewRequest = "review_requested"
	ReasonSubscribed    = "subscribed"
	ReasonTeamMention   = "team_mention"
	ReasonStateChange   = "state_change"
)

// Subject types a notification can point at.
const (
	SubjectPullRequest = "PullRequest"
	SubjectIssue       = "Issue"
	SubjectRelease     = "Release"
	SubjectDiscussion  = "Discussion"
	SubjectCommit      = "Commit"
)

// Notification is a single item from the user's GitHub notification feed,
// together with the local triage state layered on top of it.
type Notification struct {
	// ID is the local surrogate row id.
	ID int64 `json:"id"`

	// UserID scopes the row to its owning user.
	UserID int64 `json:"user_id"`

	// GithubID is the stable remote thread id, unique per user.
	GithubID string `json:"github_id"`

	// RepositoryID references the repository the thread belongs to.
	RepositoryID int64 `json:"repository_id"`

	// PullRequestID references the linked pull request row, when the
	// subject is a pull request that has been resolved locally.
	PullRequestID *int64 `json:"pull_request_id,omitempty"`

	// Subject metadata, written through from the remote on every sync.
	SubjectType        string     `json:"subject_type"`
	SubjectTitle       string     `json:"subject_title"`
	SubjectURL         string     `json:"subject_url"`
	SubjectNumber      int        `json:"subject_number"`
	SubjectState       string     `json:"subject_state"`
	SubjectMerged      bool       `json:"subject_merged"`
	SubjectStateReason string     `json:"subject_state_reason"`
	SubjectFetchedAt   *time.Time `json:"subject_fetched_at,omitempty"`

	// SubjectRaw holds the original JSON payload for the subject. Omitted
	// from list queries unless explicitly requested.
	SubjectRaw string `json:"subject_raw,omitempty"`

	// AuthorLogin is the login of the user who caused the notification.
	AuthorLogin string `json:"author_login"`

	// Reason is the remote reason code (use Reason* constants).
	Reason string `json:"reason"`

	// Triage flags. Independent boolean axes, all local-only.
	IsRead   bool `json:"is_read"`
	Archived bool `json:"archived"`
	Muted    bool `json:"muted"`
	Starred  bool `json:"starred"`
	Filtered bool `json:"filtered"`

	// SnoozedUntil/SnoozedAt form the snooze window. Both are nil when
	// the notification is not snoozed.
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
	SnoozedAt    *time.Time `json:"snoozed_at,omitempty"`

	// GithubUnread is the remote-reported unread flag, informational only.
	GithubUnread bool `json:"github_unread"`

	// GithubUpdatedAt is the remote last-activity timestamp.
	GithubUpdatedAt *time.Time `json:"github_updated_at,omitempty"`

	// ImportedAt is when the row was first created by a sync pass.
	ImportedAt time.Time `json:"imported_at"`

	// EffectiveSortDate drives all list ordering. Equals SnoozedUntil
	// while snoozed, otherwise GithubUpdatedAt falling back to ImportedAt.
	EffectiveSortDate time.Time `json:"effective_sort_date"`
}

// Snoozed reports whether the notification currently has a snooze window,
// expired or not. Bucket membership additionally compares the window
// against the current time.
func (n *Notification) Snoozed() bool {
	return n.SnoozedUntil != nil
}

// RemoteNotification is the remote system's current view of a notification
// thread, as produced by the feed client for each sync pass.
type RemoteNotification struct {
	GithubID           string
	Reason             string
	Unread             bool
	UpdatedAt          *time.Time
	SubjectType        string
	SubjectTitle       string
	SubjectURL         string
	SubjectNumber      int
	SubjectState       string
	SubjectMerged      bool
	SubjectStateReason string
	SubjectFetchedAt   *time.Time
	SubjectRaw         string
	AuthorLogin        string
	Repository         RemoteRepository
}

// RemoteRepository is the repository metadata attached to a remote
// notification payload.
type RemoteRepository struct {
	GithubID int64
	FullName string
	Owner    string
	Name     string
	Private  bool
	URL      string
}

// Repository is a locally stored repository referenced by notifications.
type Repository struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	GithubID int64  `json:"github_id"`
	FullName string `json:"full_name"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	Private  bool   `json:"private"`
	URL      string `json:"url"`
}

// PullRequest is the locally stored pull request linked from a
// notification whose subject is a PR.
type PullRequest struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	GithubID  string     `json:"github_id"`
	Number    int        `json:"number"`
	State     string     `json:"state"`
	Merged    bool       `json:"merged"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
