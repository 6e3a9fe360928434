package tests

import (
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func pendingRide() *domain.Ride {
	return &domain.Ride{
		ID:          "ride-1",
		RiderID:     "rider-1",
		VehicleType: domain.VehicleCarCity,
		Status:      domain.RideStatusPending,
		CreatedAt:   time.Now(),
	}
}

func TestRideStateMachine_HappyPath(t *testing.T) {
	m := service.NewRideStateMachine()
	ride := pendingRide()

	if err := m.Accept(ride, "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if ride.Status != domain.RideStatusAccepted || ride.DriverID != "driver-1" {
		t.Fatalf("unexpected ride after accept: %+v", ride)
	}

	completedAt := time.Now()
	if err := m.Complete(ride, completedAt); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if ride.Status != domain.RideStatusCompleted || !ride.Completed {
		t.Fatalf("unexpected ride after complete: %+v", ride)
	}
	if !ride.CompletedAt.Equal(completedAt) {
		t.Errorf("expected completion stamp %v, got %v", completedAt, ride.CompletedAt)
	}

	if err := m.AttachRating(ride, 5, "great driver"); err != nil {
		t.Fatalf("rating failed: %v", err)
	}
	if ride.Rating != 5 || ride.Feedback != "great driver" {
		t.Errorf("rating not recorded: %+v", ride)
	}
}

func TestRideStateMachine_TerminalStatesAreFinal(t *testing.T) {
	m := service.NewRideStateMachine()

	completed := pendingRide()
	completed.Status = domain.RideStatusCompleted
	rejected := pendingRide()
	rejected.Status = domain.RideStatusRejected

	for _, ride := range []*domain.Ride{completed, rejected} {
		if err := m.Accept(ride, "driver-1"); !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("accept on %s: expected ErrInvalidTransition, got %v", ride.Status, err)
		}
		if err := m.Complete(ride, time.Now()); !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("complete on %s: expected ErrInvalidTransition, got %v", ride.Status, err)
		}
		if err := m.Reject(ride); !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("reject on %s: expected ErrInvalidTransition, got %v", ride.Status, err)
		}
	}
}

func TestRideStateMachine_RejectedDriverCannotAccept(t *testing.T) {
	m := service.NewRideStateMachine()
	ride := pendingRide()
	ride.RejectedBy = []string{"driver-1"}

	if err := m.Accept(ride, "driver-1"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if ride.Status != domain.RideStatusPending {
		t.Error("failed accept must not change the ride")
	}

	// A different driver still can.
	if err := m.Accept(ride, "driver-2"); err != nil {
		t.Fatalf("accept by non-rejected driver failed: %v", err)
	}
}

func TestRideStateMachine_CompleteRequiresAcceptance(t *testing.T) {
	m := service.NewRideStateMachine()
	ride := pendingRide()

	if err := m.Complete(ride, time.Now()); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRideStateMachine_RatingGates(t *testing.T) {
	m := service.NewRideStateMachine()

	// Not yet completed.
	ride := pendingRide()
	if err := m.AttachRating(ride, 4, ""); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending ride, got %v", err)
	}

	// Out-of-range ratings.
	ride.Status = domain.RideStatusCompleted
	for _, rating := range []int{0, -1, 6} {
		if err := m.AttachRating(ride, rating, ""); !errors.Is(err, service.ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}

	if err := m.AttachRating(ride, 1, "late pickup"); err != nil {
		t.Fatalf("valid rating failed: %v", err)
	}
}
