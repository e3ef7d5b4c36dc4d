// Package notify persists the in-app notification feed and fans messages
// out to email when a sender is configured.
package notify

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification is one entry in a user's in-app feed.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	UserID    string            `json:"user_id"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// ErrNotificationNotFound is returned when no notification matches the id
// for the requesting user.
var ErrNotificationNotFound = errors.New("notification not found")
