package domain

import "time"

// Notification is a persisted message to a user. Delivery to the push
// channel is best-effort; the row is the source of truth.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}
