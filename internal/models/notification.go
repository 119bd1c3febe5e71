package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification represents a notification event emitted when an alert triggers.
// At most one is emitted per alert per calendar day. Delivery (email/push) is
// the notification collaborator's concern.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	AlertID   uuid.UUID `json:"alertId" db:"alert_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
