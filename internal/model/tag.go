package model

import "time"

// Entity types usable in tag assignments.
const (
	EntityNotification = "notification"
)

// Tag is a user-defined label attachable to notifications.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
