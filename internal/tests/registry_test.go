package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func newRegistryFixture() (*MockUserRepository, *MockLocationRepository, *MockLocationStore, *service.LocationRegistry) {
	userRepo := NewMockUserRepository()
	locationRepo := NewMockLocationRepository()
	locationStore := NewMockLocationStore()
	registry := service.NewLocationRegistry(userRepo, locationRepo, locationStore, time.Minute)
	return userRepo, locationRepo, locationStore, registry
}

func onlineDriver(id string, vt domain.VehicleType) *domain.User {
	return &domain.User{
		ID:          id,
		Name:        id,
		IsDriver:    true,
		VehicleType: vt,
		Status:      domain.DriverStatusOnline,
	}
}

func TestRegistry_PingPersistsAndMirrors(t *testing.T) {
	ctx := context.Background()
	userRepo, locationRepo, locationStore, registry := newRegistryFixture()
	userRepo.AddUser(onlineDriver("driver-1", domain.VehicleBike))

	if err := registry.Ping(ctx, "driver-1", 12.97, 77.59); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	loc, err := locationRepo.GetByDriverID(ctx, "driver-1")
	if err != nil {
		t.Fatalf("durable row missing: %v", err)
	}
	if loc.Latitude != 12.97 || loc.Longitude != 77.59 {
		t.Errorf("unexpected stored position: %+v", loc)
	}

	positions, err := locationStore.FindNearbyDrivers(ctx, domain.VehicleBike, 12.97, 77.59, 5, time.Minute)
	if err != nil {
		t.Fatalf("geo query failed: %v", err)
	}
	if len(positions) != 1 || positions[0].DriverID != "driver-1" {
		t.Errorf("expected the driver in the geo index, got %+v", positions)
	}
}

func TestRegistry_PingOverwritesPreviousPosition(t *testing.T) {
	ctx := context.Background()
	userRepo, locationRepo, _, registry := newRegistryFixture()
	userRepo.AddUser(onlineDriver("driver-1", domain.VehicleBike))

	if err := registry.Ping(ctx, "driver-1", 12.0, 77.0); err != nil {
		t.Fatalf("first ping failed: %v", err)
	}
	if err := registry.Ping(ctx, "driver-1", 13.0, 78.0); err != nil {
		t.Fatalf("second ping failed: %v", err)
	}

	loc, err := locationRepo.GetByDriverID(ctx, "driver-1")
	if err != nil {
		t.Fatalf("failed to load position: %v", err)
	}
	// One row per driver, last write wins.
	if loc.Latitude != 13.0 || loc.Longitude != 78.0 {
		t.Errorf("expected latest position, got %+v", loc)
	}
}

func TestRegistry_PingBringsOfflineDriverOnline(t *testing.T) {
	ctx := context.Background()
	userRepo, _, _, registry := newRegistryFixture()
	driver := onlineDriver("driver-1", domain.VehicleBike)
	driver.Status = domain.DriverStatusOffline
	userRepo.AddUser(driver)

	if err := registry.Ping(ctx, "driver-1", 12.0, 77.0); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if got := userRepo.GetUser("driver-1").Status; got != domain.DriverStatusOnline {
		t.Errorf("expected online, got %s", got)
	}
}

func TestRegistry_PingKeepsOnRideStatus(t *testing.T) {
	ctx := context.Background()
	userRepo, _, _, registry := newRegistryFixture()
	driver := onlineDriver("driver-1", domain.VehicleBike)
	driver.Status = domain.DriverStatusOnRide
	userRepo.AddUser(driver)

	if err := registry.Ping(ctx, "driver-1", 12.0, 77.0); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if got := userRepo.GetUser("driver-1").Status; got != domain.DriverStatusOnRide {
		t.Errorf("ping must not pull a driver off a ride, got %s", got)
	}
}

func TestRegistry_PingValidation(t *testing.T) {
	ctx := context.Background()
	userRepo, _, _, registry := newRegistryFixture()
	userRepo.AddUser(&domain.User{ID: "rider-1", Name: "Asha", IsUser: true})

	if err := registry.Ping(ctx, "", 12.0, 77.0); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
	if err := registry.Ping(ctx, "rider-1", 12.0, 77.0); !errors.Is(err, service.ErrNotADriver) {
		t.Errorf("expected ErrNotADriver, got %v", err)
	}

	userRepo.AddUser(onlineDriver("driver-1", domain.VehicleBike))
	for _, tc := range []struct{ lat, lng float64 }{{91, 0}, {-91, 0}, {0, 181}, {0, -181}} {
		if err := registry.Ping(ctx, "driver-1", tc.lat, tc.lng); !errors.Is(err, service.ErrInvalidLocation) {
			t.Errorf("lat=%.0f lng=%.0f: expected ErrInvalidLocation, got %v", tc.lat, tc.lng, err)
		}
	}
}

func TestRegistry_CandidatesFilterStatusAndSkipSet(t *testing.T) {
	ctx := context.Background()
	userRepo, _, _, registry := newRegistryFixture()

	userRepo.AddUser(onlineDriver("driver-online", domain.VehicleAuto))
	busy := onlineDriver("driver-busy", domain.VehicleAuto)
	busy.Status = domain.DriverStatusOnRide
	userRepo.AddUser(busy)
	userRepo.AddUser(onlineDriver("driver-skipped", domain.VehicleAuto))

	for _, id := range []string{"driver-busy", "driver-skipped", "driver-online"} {
		if err := registry.Ping(ctx, id, 12.0, 77.0); err != nil {
			t.Fatalf("ping failed for %s: %v", id, err)
		}
	}

	candidates, err := registry.Candidates(ctx, domain.VehicleAuto, 12.0, 77.0, 5, map[string]bool{"driver-skipped": true})
	if err != nil {
		t.Fatalf("candidate query failed: %v", err)
	}

	if len(candidates) != 1 || candidates[0].DriverID != "driver-online" {
		t.Fatalf("expected only driver-online, got %+v", candidates)
	}
}

func TestRegistry_GoOfflineRemovesFromGeoIndex(t *testing.T) {
	ctx := context.Background()
	userRepo, _, locationStore, registry := newRegistryFixture()
	userRepo.AddUser(onlineDriver("driver-1", domain.VehicleAuto))

	if err := registry.Ping(ctx, "driver-1", 12.0, 77.0); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if err := registry.GoOffline(ctx, "driver-1"); err != nil {
		t.Fatalf("go offline failed: %v", err)
	}

	if got := userRepo.GetUser("driver-1").Status; got != domain.DriverStatusOffline {
		t.Errorf("expected offline, got %s", got)
	}
	positions, _ := locationStore.FindNearbyDrivers(ctx, domain.VehicleAuto, 12.0, 77.0, 5, time.Minute)
	if len(positions) != 0 {
		t.Errorf("expected empty geo index, got %+v", positions)
	}
}
