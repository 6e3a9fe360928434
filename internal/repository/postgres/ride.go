package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, rider_id, driver_id, pickup, drop_point, pickup_lat, pickup_lng, distance_km, vehicle_type, fare, incentive, reward, status, completed, paid, rating, feedback, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	reward, err := marshalReward(ride.Reward)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		nullString(ride.DriverID),
		ride.Pickup,
		ride.Drop,
		ride.PickupLat,
		ride.PickupLng,
		ride.DistanceKm,
		ride.VehicleType,
		ride.Fare,
		ride.Incentive,
		reward,
		ride.Status,
		ride.Completed,
		ride.Paid,
		nullInt(ride.Rating),
		nullString(ride.Feedback),
		ride.CreatedAt,
		nullTime(ride.CompletedAt),
	)

	return err
}

// GetByID retrieves a ride by ID, including its rejected set.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `
		SELECT r.id, r.rider_id, r.driver_id, r.pickup, r.drop_point, r.pickup_lat, r.pickup_lng, r.distance_km, r.vehicle_type, r.fare, r.incentive, r.reward, r.status, r.completed, r.paid, r.rating, r.feedback, r.created_at, r.completed_at,
		       COALESCE(array_agg(rj.driver_id) FILTER (WHERE rj.driver_id IS NOT NULL), '{}')
		FROM rides r
		LEFT JOIN ride_rejections rj ON rj.ride_id = r.id
		WHERE r.id = $1
		GROUP BY r.id
	`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ride, nil
}

// Update updates an existing ride (not its rejected set).
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET driver_id = $1, fare = $2, incentive = $3, reward = $4, status = $5, completed = $6, paid = $7, rating = $8, feedback = $9, completed_at = $10
		WHERE id = $11
	`

	reward, err := marshalReward(ride.Reward)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query,
		nullString(ride.DriverID),
		ride.Fare,
		ride.Incentive,
		reward,
		ride.Status,
		ride.Completed,
		ride.Paid,
		nullInt(ride.Rating),
		nullString(ride.Feedback),
		nullTime(ride.CompletedAt),
		ride.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AddRejected adds a driver to the ride's rejected set. The set only
// grows; re-adding an existing driver is a no-op.
func (r *RideRepository) AddRejected(ctx context.Context, rideID, driverID string) error {
	query := `
		INSERT INTO ride_rejections (ride_id, driver_id)
		VALUES ($1, $2)
		ON CONFLICT (ride_id, driver_id) DO NOTHING
	`

	_, err := r.q.ExecContext(ctx, query, rideID, driverID)
	return err
}

// Accept atomically assigns a driver to a pending ride. The WHERE
// clause makes the pending check and the assignment one statement, so
// two concurrent acceptances cannot both succeed. The rejected-set
// subquery backs the state-machine guard at the storage layer.
func (r *RideRepository) Accept(ctx context.Context, ride *domain.Ride) (bool, error) {
	query := `
		UPDATE rides
		SET driver_id = $1, fare = $2, incentive = $3, reward = $4, status = $5
		WHERE id = $6
		  AND status = $7
		  AND NOT EXISTS (
			SELECT 1 FROM ride_rejections WHERE ride_id = $6 AND driver_id = $1
		  )
	`

	reward, err := marshalReward(ride.Reward)
	if err != nil {
		return false, err
	}

	result, err := r.q.ExecContext(ctx, query,
		ride.DriverID,
		ride.Fare,
		ride.Incentive,
		reward,
		domain.RideStatusAccepted,
		ride.ID,
		domain.RideStatusPending,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// scanRide scans one ride row including the aggregated rejected set.
func scanRide(row *sql.Row) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID sql.NullString
	var rating sql.NullInt64
	var feedback sql.NullString
	var completedAt sql.NullTime
	var reward []byte
	var rejectedBy pq.StringArray

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.Pickup,
		&ride.Drop,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DistanceKm,
		&ride.VehicleType,
		&ride.Fare,
		&ride.Incentive,
		&reward,
		&ride.Status,
		&ride.Completed,
		&ride.Paid,
		&rating,
		&feedback,
		&ride.CreatedAt,
		&completedAt,
		&rejectedBy,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		ride.DriverID = driverID.String
	}
	if rating.Valid {
		ride.Rating = int(rating.Int64)
	}
	if feedback.Valid {
		ride.Feedback = feedback.String
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}
	if err := unmarshalReward(reward, &ride.Reward); err != nil {
		return nil, err
	}
	ride.RejectedBy = []string(rejectedBy)

	return &ride, nil
}
