package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// NotificationService persists notifications and hands them to the
// push channel. The row is the source of truth; push delivery is
// best-effort and a failure there never propagates to the caller.
type NotificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// Notify records a notification for the user. Fire-and-forget: errors
// are logged, never returned, so a notification failure cannot fail a
// dispatch or payment.
func (s *NotificationService) Notify(ctx context.Context, userID, title, message string) {
	n := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		log.Printf("notification: persist failed for user %s: %v", userID, err)
		return
	}

	log.Printf("notification: user=%s title=%q", userID, title)
}

// Inbox returns the user's notifications, newest first.
func (s *NotificationService) Inbox(ctx context.Context, userID string) ([]*domain.Notification, error) {
	if userID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.notifications.GetByUser(ctx, userID)
}
