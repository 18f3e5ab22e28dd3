package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS repositories (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	github_id  INTEGER NOT NULL,
	full_name  TEXT NOT NULL,
	owner      TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	private    INTEGER NOT NULL DEFAULT 0 CHECK(private IN (0, 1)),
	url        TEXT NOT NULL DEFAULT '',
	UNIQUE(user_id, github_id)
);

CREATE TABLE IF NOT EXISTS pull_requests (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	github_id  TEXT NOT NULL,
	number     INTEGER NOT NULL DEFAULT 0,
	state      TEXT NOT NULL DEFAULT '',
	merged     INTEGER NOT NULL DEFAULT 0 CHECK(merged IN (0, 1)),
	title      TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	updated_at DATETIME,
	UNIQUE(user_id, github_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id              INTEGER NOT NULL,
	github_id            TEXT NOT NULL,
	repository_id        INTEGER NOT NULL DEFAULT 0,
	pull_request_id      INTEGER REFERENCES pull_requests(id) ON DELETE SET NULL,
	subject_type         TEXT NOT NULL DEFAULT '',
	subject_title        TEXT NOT NULL DEFAULT '',
	subject_url          TEXT NOT NULL DEFAULT '',
	subject_number       INTEGER NOT NULL DEFAULT 0,
	subject_state        TEXT NOT NULL DEFAULT '',
	subject_merged       INTEGER NOT NULL DEFAULT 0 CHECK(subject_merged IN (0, 1)),
	subject_state_reason TEXT NOT NULL DEFAULT '',
	subject_fetched_at   DATETIME,
	subject_raw          TEXT NOT NULL DEFAULT '',
	author_login         TEXT NOT NULL DEFAULT '',
	reason               TEXT NOT NULL DEFAULT '',
	is_read              INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	archived             INTEGER NOT NULL DEFAULT 0 CHECK(archived IN (0, 1)),
	muted                INTEGER NOT NULL DEFAULT 0 CHECK(muted IN (0, 1)),
	starred              INTEGER NOT NULL DEFAULT 0 CHECK(starred IN (0, 1)),
	filtered             INTEGER NOT NULL DEFAULT 0 CHECK(filtered IN (0, 1)),
	snoozed_until        DATETIME,
	snoozed_at           DATETIME,
	github_unread        INTEGER NOT NULL DEFAULT 0 CHECK(github_unread IN (0, 1)),
	github_updated_at    DATETIME,
	imported_at          DATETIME NOT NULL,
	effective_sort_date  DATETIME NOT NULL,
	UNIQUE(user_id, github_id)
);

CREATE INDEX IF NOT EXISTS idx_notifications_sort
	ON notifications(user_id, effective_sort_date DESC, imported_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_repository
	ON notifications(repository_id);
CREATE INDEX IF NOT EXISTS idx_notifications_archived
	ON notifications(user_id, archived);
CREATE INDEX IF NOT EXISTS idx_notifications_snoozed
	ON notifications(user_id, snoozed_until);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, name)
);

CREATE TABLE IF NOT EXISTS tag_assignments (
	tag_id      TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	entity_type TEXT NOT NULL,
	entity_id   INTEGER NOT NULL,
	PRIMARY KEY (tag_id, entity_type, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_tag_assignments_entity
	ON tag_assignments(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS sync_state (
	user_id          INTEGER PRIMARY KEY,
	last_polled_at   DATETIME,
	last_etag        TEXT NOT NULL DEFAULT '',
	oldest_synced_at DATETIME,
	newest_synced_at DATETIME
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
