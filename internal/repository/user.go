package repository

import (
	"context"

	"dispatch/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// UpdateStatus updates a driver's availability status.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error
}
