package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/gh-inbox/internal/model"
)

// slugify lowercases a tag name and collapses non-alphanumeric runs to
// single hyphens.
func slugify(name string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// CreateTag inserts a new tag. Generates a UUID if ID is empty and a
// slug from the name if none was given.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error) {
	if strings.TrimSpace(tag.Name) == "" {
		return nil, fmt.Errorf("tag name must not be empty")
	}
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	if tag.Slug == "" {
		tag.Slug = slugify(tag.Name)
	}
	tag.CreatedAt = time.Now().UTC()

	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			"INSERT INTO tags (id, user_id, name, slug, color, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			tag.ID, tag.UserID, tag.Name, tag.Slug, tag.Color, tag.CreatedAt,
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("creating tag %s: %w", tag.Name, err)
	}
	return &tag, nil
}

// UpdateTag updates a tag's name, slug, and color.
func (s *SQLiteStore) UpdateTag(ctx context.Context, tag model.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	if tag.Slug == "" {
		tag.Slug = slugify(tag.Name)
	}

	var affected int64
	err := s.execRetry(ctx, func() error {
		result, execErr := s.db.ExecContext(ctx,
			"UPDATE tags SET name = ?, slug = ?, color = ? WHERE id = ? AND user_id = ?",
			tag.Name, tag.Slug, tag.Color, tag.ID, tag.UserID,
		)
		if execErr != nil {
			return execErr
		}
		affected, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating tag %s: %w", tag.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("tag %s: %w", tag.ID, ErrNotFound)
	}
	return nil
}

// DeleteTag removes a tag. CASCADE on tag_assignments removes its
// assignments.
func (s *SQLiteStore) DeleteTag(ctx context.Context, userID int64, tagID string) error {
	var affected int64
	err := s.execRetry(ctx, func() error {
		result, execErr := s.db.ExecContext(ctx,
			"DELETE FROM tags WHERE id = ? AND user_id = ?", tagID, userID)
		if execErr != nil {
			return execErr
		}
		affected, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", tagID, err)
	}
	if affected == 0 {
		return fmt.Errorf("tag %s: %w", tagID, ErrNotFound)
	}
	return nil
}

// GetTags retrieves all of a user's tags ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context, userID int64) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.execRetry(ctx, func() error {
		rows, err := s.db.QueryxContext(ctx,
			"SELECT id, user_id, name, slug, color, created_at FROM tags WHERE user_id = ? ORDER BY name",
			userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		tags = nil
		for rows.Next() {
			var t model.Tag
			if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt); err != nil {
				return fmt.Errorf("scanning tag row: %w", err)
			}
			tags = append(tags, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// GetTagsForNotification retrieves all tags assigned to a notification.
func (s *SQLiteStore) GetTagsForNotification(
	ctx context.Context,
	userID int64,
	notificationID int64,
) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.execRetry(ctx, func() error {
		rows, err := s.db.QueryxContext(ctx, `
			SELECT t.id, t.user_id, t.name, t.slug, t.color, t.created_at FROM tags t
			INNER JOIN tag_assignments ta ON t.id = ta.tag_id
			WHERE t.user_id = ? AND ta.entity_type = ? AND ta.entity_id = ?
			ORDER BY t.name`,
			userID, model.EntityNotification, notificationID)
		if err != nil {
			return err
		}
		defer rows.Close()

		tags = nil
		for rows.Next() {
			var t model.Tag
			if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt); err != nil {
				return fmt.Errorf("scanning tag row: %w", err)
			}
			tags = append(tags, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("querying tags for notification %d: %w", notificationID, err)
	}
	return tags, nil
}

// AssignTag attaches a tag to a notification. Assigning an already
// assigned tag is a no-op.
func (s *SQLiteStore) AssignTag(
	ctx context.Context,
	userID int64,
	tagID string,
	notificationID int64,
) error {
	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO tag_assignments (tag_id, entity_type, entity_id)
			SELECT id, ?, ? FROM tags WHERE id = ? AND user_id = ?`,
			model.EntityNotification, notificationID, tagID, userID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("assigning tag %s to notification %d: %w", tagID, notificationID, err)
	}
	return nil
}

// UnassignTag detaches a tag from a notification.
func (s *SQLiteStore) UnassignTag(
	ctx context.Context,
	userID int64,
	tagID string,
	notificationID int64,
) error {
	err := s.execRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			DELETE FROM tag_assignments
			WHERE tag_id = ? AND entity_type = ? AND entity_id = ?
			AND tag_id IN (SELECT id FROM tags WHERE user_id = ?)`,
			tagID, model.EntityNotification, notificationID, userID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("unassigning tag %s from notification %d: %w", tagID, notificationID, err)
	}
	return nil
}
