package repository

import (
	"context"

	"dispatch/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID, including its rejected set.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// Update updates an existing ride (not its rejected set).
	Update(ctx context.Context, ride *domain.Ride) error

	// AddRejected adds a driver to the ride's rejected set. Adding a
	// driver that is already present is a no-op.
	AddRejected(ctx context.Context, rideID, driverID string) error

	// Accept atomically assigns a driver to a pending ride: the status
	// flips pending -> accepted and the fare fields are written in one
	// conditional update. Returns false when the ride was no longer
	// pending, without mutating anything.
	Accept(ctx context.Context, ride *domain.Ride) (bool, error)
}
