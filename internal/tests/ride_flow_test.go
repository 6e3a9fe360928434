package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func newRideService(f *dispatchFixture) *service.RideService {
	notifier := service.NewNotificationService(f.notifications)
	fares := service.NewFareCalculator(f.rules, service.FractionIncentivePolicy{Fraction: 0.15})
	rewards := service.NewRewardEngine(f.rules)
	return service.NewRideService(
		f.rides, f.users, f.coordinator, fares, rewards,
		service.NewRideStateMachine(), notifier,
	)
}

func TestRideFlow_RequestAcceptCompleteRate(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(time.Second, 4)
	f.addDriver("driver-a", domain.VehicleCarCity, 0.5)
	f.users.AddUser(&domain.User{ID: "rider-1", Name: "Asha", IsUser: true})
	rideService := newRideService(f)

	ride, err := rideService.Request(ctx, service.RideRequest{
		RiderID:     "rider-1",
		Pickup:      "Station",
		Drop:        "Airport",
		PickupLat:   12.97,
		PickupLng:   77.59,
		DistanceKm:  7,
		VehicleType: "car_city",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if ride.Status != domain.RideStatusPending {
		t.Fatalf("expected pending ride, got %s", ride.Status)
	}

	respondEventually(t, f.coordinator, ride.ID, "driver-a", true)

	// Assignment is asynchronous; poll the ride until it lands.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		current, err := rideService.Get(ctx, ride.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if current.Status == domain.RideStatusAccepted {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	accepted, _ := rideService.Get(ctx, ride.ID)
	if accepted.Status != domain.RideStatusAccepted || accepted.DriverID != "driver-a" {
		t.Fatalf("expected acceptance by driver-a, got %+v", accepted)
	}
	if accepted.Fare != 56 {
		t.Errorf("expected fare 56, got %.2f", accepted.Fare)
	}

	// Only the assigned driver may complete.
	if _, err := rideService.Complete(ctx, ride.ID, "driver-x"); !errors.Is(err, service.ErrDriverNotAssigned) {
		t.Fatalf("expected ErrDriverNotAssigned, got %v", err)
	}

	completed, err := rideService.Complete(ctx, ride.ID, "driver-a")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != domain.RideStatusCompleted || !completed.Completed {
		t.Fatalf("expected completed ride, got %+v", completed)
	}
	if f.users.GetUser("driver-a").Status != domain.DriverStatusOnline {
		t.Error("driver should be back in rotation after completion")
	}

	// Rating before completion was impossible; now it sticks.
	rated, err := rideService.Rate(ctx, ride.ID, "rider-1", 5, "smooth ride")
	if err != nil {
		t.Fatalf("rate failed: %v", err)
	}
	if rated.Rating != 5 || rated.Feedback != "smooth ride" {
		t.Errorf("rating not recorded: %+v", rated)
	}
}

func TestRideFlow_RequestValidation(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(time.Second, 4)
	f.users.AddUser(&domain.User{ID: "rider-1", Name: "Asha", IsUser: true})
	rideService := newRideService(f)

	cases := []struct {
		name string
		req  service.RideRequest
		want error
	}{
		{"missing rider", service.RideRequest{VehicleType: "bike"}, service.ErrInvalidRiderID},
		{"bad vehicle type", service.RideRequest{RiderID: "rider-1", VehicleType: "rickshaw"}, service.ErrInvalidVehicleType},
		{"negative distance", service.RideRequest{RiderID: "rider-1", VehicleType: "bike", DistanceKm: -2}, service.ErrInvalidDistance},
		{"bad coordinates", service.RideRequest{RiderID: "rider-1", VehicleType: "bike", PickupLat: 95}, service.ErrInvalidLocation},
	}

	for _, tc := range cases {
		if _, err := rideService.Request(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRideFlow_QuoteMatchesDispatchPricing(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(time.Second, 4)
	rideService := newRideService(f)

	quote, err := rideService.Quote(ctx, "car_city", 7)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Fare != 56 {
		t.Errorf("expected fare 56, got %.2f", quote.Fare)
	}
	if quote.Incentive != 56*0.15 {
		t.Errorf("expected incentive %.2f, got %.2f", 56*0.15, quote.Incentive)
	}

	if _, err := rideService.Quote(ctx, "submarine", 7); !errors.Is(err, service.ErrInvalidVehicleType) {
		t.Fatalf("expected ErrInvalidVehicleType, got %v", err)
	}
}
