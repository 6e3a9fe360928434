package service

import (
	"context"
	"errors"
	"log"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// LocationRegistry tracks driver positions. Every ping overwrites the
// driver's single current position in PostgreSQL and mirrors it into
// the Redis geo index that serves proximity queries. A driver with no
// recent ping simply drops out of candidate results.
type LocationRegistry struct {
	users     repository.UserRepository
	locations repository.LocationRepository
	geo       redis.LocationStoreInterface
	freshness time.Duration
}

// NewLocationRegistry creates a new LocationRegistry.
func NewLocationRegistry(
	users repository.UserRepository,
	locations repository.LocationRepository,
	geo redis.LocationStoreInterface,
	freshness time.Duration,
) *LocationRegistry {
	return &LocationRegistry{
		users:     users,
		locations: locations,
		geo:       geo,
		freshness: freshness,
	}
}

// Ping records a driver location update. An offline driver pinging
// comes back online; a driver on a ride keeps its on_ride status.
func (r *LocationRegistry) Ping(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidLocation
	}

	user, err := r.users.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if !user.IsDriver {
		return ErrNotADriver
	}

	if err := r.locations.Upsert(ctx, &domain.DriverLocation{
		DriverID:  driverID,
		Latitude:  lat,
		Longitude: lng,
		UpdatedAt: time.Now(),
	}); err != nil {
		return err
	}

	if err := r.geo.UpdateLocation(ctx, driverID, user.VehicleType, lat, lng); err != nil {
		// The durable row is written; the geo index catches up on the
		// next ping. Not worth failing the request over.
		log.Printf("location: geo index update failed for driver %s: %v", driverID, err)
	}

	if user.Status == domain.DriverStatusOffline {
		return r.users.UpdateStatus(ctx, driverID, domain.DriverStatusOnline)
	}

	return nil
}

// Position returns the driver's last known position.
func (r *LocationRegistry) Position(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return r.locations.GetByDriverID(ctx, driverID)
}

// Candidates returns online drivers of the given vehicle type within
// radiusKm of the pickup, fresh within the registry's freshness
// window, ordered nearest first. Drivers in skip are excluded.
func (r *LocationRegistry) Candidates(ctx context.Context, vt domain.VehicleType, lat, lng, radiusKm float64, skip map[string]bool) ([]redis.DriverPosition, error) {
	positions, err := r.geo.FindNearbyDrivers(ctx, vt, lat, lng, radiusKm, r.freshness)
	if err != nil {
		return nil, err
	}

	candidates := make([]redis.DriverPosition, 0, len(positions))
	for _, pos := range positions {
		if skip[pos.DriverID] {
			continue
		}
		user, err := r.users.GetByID(ctx, pos.DriverID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if user.Status != domain.DriverStatusOnline {
			continue
		}
		candidates = append(candidates, pos)
	}

	return candidates, nil
}

// GoOffline takes a driver out of rotation and drops it from the geo
// index immediately rather than waiting for the freshness window.
func (r *LocationRegistry) GoOffline(ctx context.Context, driverID string) error {
	user, err := r.users.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if !user.IsDriver {
		return ErrNotADriver
	}

	if err := r.geo.RemoveLocation(ctx, driverID, user.VehicleType); err != nil {
		log.Printf("location: geo index removal failed for driver %s: %v", driverID, err)
	}

	return r.users.UpdateStatus(ctx, driverID, domain.DriverStatusOffline)
}
