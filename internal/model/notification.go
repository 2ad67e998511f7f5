package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a server-generated alert, typically a low-stock warning.
// The client only ever changes IsRead, and only after the server confirms.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ItemID    uuid.UUID `json:"item_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationFilter holds the list-notifications query parameters.
type NotificationFilter struct {
	Skip       int
	Limit      int
	UnreadOnly bool
}
