package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RideRequest carries the rider's input for a new ride.
type RideRequest struct {
	RiderID     string
	Pickup      string
	Drop        string
	PickupLat   float64
	PickupLng   float64
	DistanceKm  float64
	VehicleType string
}

// FareQuote is a preview of what a ride would cost, with the reward
// the rider would earn. Quotes are not reservations.
type FareQuote struct {
	VehicleType domain.VehicleType  `json:"vehicle_type"`
	DistanceKm  float64             `json:"distance_km"`
	Fare        float64             `json:"fare"`
	Incentive   float64             `json:"incentive"`
	Reward      domain.RewardBundle `json:"reward"`
}

// RideService ties the ride lifecycle together: request and persist,
// hand off to dispatch, complete, rate.
type RideService struct {
	rides      repository.RideRepository
	users      repository.UserRepository
	dispatcher *DispatchCoordinator
	fares      *FareCalculator
	rewards    *RewardEngine
	lifecycle  *RideStateMachine
	notifier   *NotificationService
}

// NewRideService creates a new RideService.
func NewRideService(
	rides repository.RideRepository,
	users repository.UserRepository,
	dispatcher *DispatchCoordinator,
	fares *FareCalculator,
	rewards *RewardEngine,
	lifecycle *RideStateMachine,
	notifier *NotificationService,
) *RideService {
	return &RideService{
		rides:      rides,
		users:      users,
		dispatcher: dispatcher,
		fares:      fares,
		rewards:    rewards,
		lifecycle:  lifecycle,
		notifier:   notifier,
	}
}

// Request validates and persists a new pending ride, then starts the
// dispatch loop for it. The ride is returned immediately; assignment
// happens asynchronously and the rider observes it by polling the
// ride.
func (s *RideService) Request(ctx context.Context, req RideRequest) (*domain.Ride, error) {
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if !domain.ValidVehicleType(req.VehicleType) {
		return nil, ErrInvalidVehicleType
	}
	if req.DistanceKm < 0 {
		return nil, ErrInvalidDistance
	}
	if req.PickupLat < -90 || req.PickupLat > 90 || req.PickupLng < -180 || req.PickupLng > 180 {
		return nil, ErrInvalidLocation
	}

	if _, err := s.users.GetByID(ctx, req.RiderID); err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:          uuid.New().String(),
		RiderID:     req.RiderID,
		Pickup:      req.Pickup,
		Drop:        req.Drop,
		PickupLat:   req.PickupLat,
		PickupLng:   req.PickupLng,
		DistanceKm:  req.DistanceKm,
		VehicleType: domain.VehicleType(req.VehicleType),
		Status:      domain.RideStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, err
	}

	if _, err := s.dispatcher.Dispatch(ctx, ride); err != nil {
		return nil, err
	}

	log.Printf("ride: %s requested by rider %s (%s, %.1f km)", ride.ID, ride.RiderID, ride.VehicleType, ride.DistanceKm)
	return ride, nil
}

// Get retrieves a ride by ID.
func (s *RideService) Get(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rides.GetByID(ctx, rideID)
}

// Complete finishes an accepted ride. Only the assigned driver may
// complete it; the driver goes back into rotation afterwards.
func (s *RideService) Complete(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	if err := s.lifecycle.Complete(ride, time.Now()); err != nil {
		return nil, err
	}
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}

	if err := s.users.UpdateStatus(ctx, driverID, domain.DriverStatusOnline); err != nil {
		log.Printf("ride: status reset failed for driver %s: %v", driverID, err)
	}

	s.notifier.Notify(ctx, ride.RiderID, "Ride completed",
		fmt.Sprintf("Thanks for riding with us. Fare %.2f", ride.Fare))

	return ride, nil
}

// Rate records the rider's rating and feedback for a completed ride.
func (s *RideService) Rate(ctx context.Context, rideID, riderID string, rating int, feedback string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != riderID {
		return nil, repository.ErrNotFound
	}

	if err := s.lifecycle.AttachRating(ride, rating, feedback); err != nil {
		return nil, err
	}
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

// Quote previews the fare, incentive and reward for a hypothetical
// ride without creating anything.
func (s *RideService) Quote(ctx context.Context, vehicleType string, distanceKm float64) (*FareQuote, error) {
	if !domain.ValidVehicleType(vehicleType) {
		return nil, ErrInvalidVehicleType
	}

	vt := domain.VehicleType(vehicleType)
	fare, incentive, err := s.fares.Compute(ctx, vt, distanceKm)
	if err != nil {
		return nil, err
	}
	reward, err := s.rewards.Compute(ctx, vt, distanceKm)
	if err != nil {
		return nil, err
	}

	return &FareQuote{
		VehicleType: vt,
		DistanceKm:  distanceKm,
		Fare:        fare,
		Incentive:   incentive,
		Reward:      reward,
	}, nil
}
