package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
)

const (
	geoKeyPrefix    = "drivers:locations:"
	lastSeenKey     = "drivers:last_seen"
	timestampLayout = time.RFC3339Nano
)

// DriverPosition is one candidate returned by a proximity query.
type DriverPosition struct {
	DriverID   string
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// LocationStore handles driver location operations in Redis. One GEO
// key per vehicle type keeps radius queries filterable by class; a
// companion hash records the last ping time per driver so stale
// entries can be excluded at query time.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a driver's location using GEOADD and stamps
// the last-seen hash. Concurrent pings from the same driver are
// last-write-wins.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, vt domain.VehicleType, lat, lng float64) error {
	key := geoKeyPrefix + string(vt)

	pipe := s.client.Pipeline()
	pipe.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      driverID,
		Longitude: lng,
		Latitude:  lat,
	})
	pipe.HSet(ctx, lastSeenKey, driverID, time.Now().Format(timestampLayout))
	_, err := pipe.Exec(ctx)
	return err
}

// FindNearbyDrivers returns drivers of the given vehicle type within
// radiusKm of (lat, lng), ordered by ascending distance. Drivers whose
// last ping is older than freshness are excluded.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, vt domain.VehicleType, lat, lng, radiusKm float64, freshness time.Duration) ([]DriverPosition, error) {
	key := geoKeyPrefix + string(vt)

	results, err := s.client.GeoRadius(ctx, key, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Name
	}

	lastSeen, err := s.client.HMGet(ctx, lastSeenKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-freshness)
	positions := make([]DriverPosition, 0, len(results))
	for i, r := range results {
		if !seenSince(lastSeen[i], cutoff) {
			continue
		}
		positions = append(positions, DriverPosition{
			DriverID:   r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}

	return positions, nil
}

// RemoveLocation removes a driver from the geo index for one vehicle
// type and clears the last-seen stamp.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string, vt domain.VehicleType) error {
	pipe := s.client.Pipeline()
	pipe.ZRem(ctx, geoKeyPrefix+string(vt), driverID)
	pipe.HDel(ctx, lastSeenKey, driverID)
	_, err := pipe.Exec(ctx)
	return err
}

// seenSince parses one HMGET reply value and compares it to cutoff. A
// missing or unparseable stamp counts as stale.
func seenSince(raw any, cutoff time.Time) bool {
	str, ok := raw.(string)
	if !ok {
		return false
	}
	ts, err := time.Parse(timestampLayout, str)
	if err != nil {
		// Old entries may carry a unix-seconds stamp.
		secs, convErr := strconv.ParseInt(str, 10, 64)
		if convErr != nil {
			return false
		}
		ts = time.Unix(secs, 0)
	}
	return ts.After(cutoff)
}
