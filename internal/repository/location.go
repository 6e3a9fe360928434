package repository

import (
	"context"

	"dispatch/internal/domain"
)

// LocationRepository persists the single current position per driver.
// The Redis geo index serves proximity queries; this table is the
// durable copy that survives a Redis flush.
type LocationRepository interface {
	// Upsert overwrites the driver's row, last-write-wins.
	Upsert(ctx context.Context, loc *domain.DriverLocation) error

	// GetByDriverID retrieves the driver's current position.
	GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLocation, error)
}
