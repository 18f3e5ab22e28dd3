package store

import (
	"strings"
	"testing"
)

func TestBuildFetchQueryScopesAndOrders(t *testing.T) {
	fd := FilterDescription{
		Predicates: []string{"notifications.archived = 0", "notifications.reason = ?"},
		Params:     []any{"mention"},
		Limit:      20,
		Offset:     40,
	}

	query, args := buildFetchQuery(7, fd)

	wantPrefix := "SELECT notifications.id, notifications.user_id"
	if !strings.HasPrefix(query, wantPrefix) {
		t.Errorf("query should start with the published projection, got %q", query)
	}
	if !strings.Contains(query, "WHERE notifications.user_id = ? AND (notifications.archived = 0) AND (notifications.reason = ?)") {
		t.Errorf("user scope must come first and predicates in order, got %q", query)
	}
	if !strings.Contains(query, "ORDER BY notifications.effective_sort_date DESC, notifications.imported_at DESC") {
		t.Errorf("missing fixed ordering in %q", query)
	}
	if !strings.Contains(query, "LIMIT 20") || !strings.Contains(query, "OFFSET 40") {
		t.Errorf("missing pagination in %q", query)
	}
	if strings.Contains(query, "subject_raw") {
		t.Errorf("subject_raw must be omitted by default, got %q", query)
	}

	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0] != int64(7) {
		t.Errorf("first arg must be the user id, got %v", args[0])
	}
	if args[1] != "mention" {
		t.Errorf("second arg must follow predicate order, got %v", args[1])
	}
}

func TestBuildFetchQueryIncludesRawInPlace(t *testing.T) {
	query, _ := buildFetchQuery(1, FilterDescription{IncludeSubjectRaw: true})

	if !strings.Contains(query, "notifications.subject_fetched_at, notifications.subject_raw, notifications.author_login") {
		t.Errorf("subject_raw must sit between subject_fetched_at and author_login, got %q", query)
	}
}

func TestBuildFetchQueryJoinsGroupRows(t *testing.T) {
	fd := FilterDescription{
		Joins:      []string{"INNER JOIN tag_assignments ON tag_assignments.entity_id = notifications.id"},
		Predicates: []string{"tag_assignments.tag_id = ?"},
		Params:     []any{"tag-1"},
	}

	query, _ := buildFetchQuery(1, fd)
	if !strings.Contains(query, "INNER JOIN tag_assignments") {
		t.Errorf("missing join in %q", query)
	}
	if !strings.Contains(query, "GROUP BY notifications.id") {
		t.Errorf("joined fetch must group by notification id, got %q", query)
	}
}

func TestBuildCountQueryMatchesPredicates(t *testing.T) {
	fd := FilterDescription{
		Predicates: []string{"notifications.starred = ?"},
		Params:     []any{1},
		Limit:      10,
		Offset:     5,
	}

	query, args := buildCountQuery(3, fd)

	if !strings.HasPrefix(query, "SELECT COUNT(DISTINCT notifications.id)") {
		t.Errorf("count must be distinct over ids, got %q", query)
	}
	if !strings.Contains(query, "notifications.user_id = ? AND (notifications.starred = ?)") {
		t.Errorf("count must reuse the same predicates, got %q", query)
	}
	if strings.Contains(query, "LIMIT") || strings.Contains(query, "ORDER BY") {
		t.Errorf("count must not order or paginate, got %q", query)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}

func TestBuildIDSubselect(t *testing.T) {
	fd := FilterDescription{Predicates: []string{"notifications.muted = 0"}}

	query, args := buildIDSubselect(9, fd)

	if !strings.HasPrefix(query, "SELECT notifications.id FROM notifications") {
		t.Errorf("subselect must project only the id, got %q", query)
	}
	if !strings.Contains(query, "notifications.user_id = ?") {
		t.Errorf("subselect must keep the user scope, got %q", query)
	}
	if len(args) != 1 || args[0] != int64(9) {
		t.Errorf("unexpected args %v", args)
	}
}
