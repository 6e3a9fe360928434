package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// LocationRepository is a PostgreSQL implementation of
// repository.LocationRepository.
type LocationRepository struct {
	q Querier
}

// NewLocationRepository creates a new PostgreSQL location repository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{q: db}
}

// Upsert overwrites the driver's single row, last-write-wins.
func (r *LocationRepository) Upsert(ctx context.Context, loc *domain.DriverLocation) error {
	query := `
		INSERT INTO driver_locations (driver_id, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (driver_id) DO UPDATE
		SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query, loc.DriverID, loc.Latitude, loc.Longitude, loc.UpdatedAt)
	return err
}

// GetByDriverID retrieves the driver's current position.
func (r *LocationRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	query := `
		SELECT driver_id, latitude, longitude, updated_at
		FROM driver_locations WHERE driver_id = $1
	`

	var loc domain.DriverLocation
	err := r.q.QueryRowContext(ctx, query, driverID).Scan(
		&loc.DriverID,
		&loc.Latitude,
		&loc.Longitude,
		&loc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &loc, nil
}
