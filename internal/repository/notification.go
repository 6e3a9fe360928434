package repository

import (
	"context"

	"dispatch/internal/domain"
)

// NotificationRepository defines the persistence operations for
// notification records.
type NotificationRepository interface {
	// Create persists a new notification.
	Create(ctx context.Context, n *domain.Notification) error

	// GetByUser retrieves a user's notifications, newest first.
	GetByUser(ctx context.Context, userID string) ([]*domain.Notification, error)
}
