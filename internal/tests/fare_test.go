package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func newFareFixture() (*MockRuleRepository, *service.FareCalculator) {
	rules := NewMockRuleRepository()
	rules.SetFareRules([]domain.FareRule{
		{ID: "fr-1", VehicleType: domain.VehicleCarCity, MinDistance: 0, MaxDistance: float64Ptr(5), PerKmRate: 10},
		{ID: "fr-2", VehicleType: domain.VehicleCarCity, MinDistance: 5, PerKmRate: 8},
		{ID: "fr-3", VehicleType: domain.VehicleBike, MinDistance: 0, PerKmRate: 5},
	})
	calculator := service.NewFareCalculator(rules, service.FractionIncentivePolicy{Fraction: 0.15})
	return rules, calculator
}

func TestFareCalculator_WholeDistanceAtMatchedBandRate(t *testing.T) {
	ctx := context.Background()
	_, calculator := newFareFixture()

	// 7 km falls in the 5+ band: all 7 km at rate 8, not 5*10 + 2*8.
	fare, incentive, err := calculator.Compute(ctx, domain.VehicleCarCity, 7)
	if err != nil {
		t.Fatalf("failed to compute fare: %v", err)
	}
	if fare != 56 {
		t.Errorf("expected fare 56, got %.2f", fare)
	}
	if incentive != 56*0.15 {
		t.Errorf("expected incentive %.2f, got %.2f", 56*0.15, incentive)
	}
}

func TestFareCalculator_BandBoundariesAreHalfOpen(t *testing.T) {
	ctx := context.Background()
	_, calculator := newFareFixture()

	cases := []struct {
		distance float64
		want     float64
	}{
		{0, 0},        // lower edge of the first band
		{4.99, 49.9},  // still in [0, 5)
		{5, 40},       // exactly on the boundary: the 5+ band owns it
		{100, 800},    // unbounded band
	}

	for _, tc := range cases {
		fare, _, err := calculator.Compute(ctx, domain.VehicleCarCity, tc.distance)
		if err != nil {
			t.Fatalf("failed to compute fare for %.2f km: %v", tc.distance, err)
		}
		if diff := fare - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("distance %.2f: expected fare %.2f, got %.2f", tc.distance, tc.want, fare)
		}
	}
}

func TestFareCalculator_IsDeterministic(t *testing.T) {
	ctx := context.Background()
	_, calculator := newFareFixture()

	first, _, err := calculator.Compute(ctx, domain.VehicleCarCity, 3.3)
	if err != nil {
		t.Fatalf("failed to compute fare: %v", err)
	}
	for i := 0; i < 10; i++ {
		fare, _, err := calculator.Compute(ctx, domain.VehicleCarCity, 3.3)
		if err != nil {
			t.Fatalf("failed to compute fare: %v", err)
		}
		if fare != first {
			t.Fatalf("fare changed between calls: %.4f vs %.4f", first, fare)
		}
	}
}

func TestFareCalculator_BandGapIsConfigurationError(t *testing.T) {
	ctx := context.Background()
	rules := NewMockRuleRepository()
	rules.SetFareRules([]domain.FareRule{
		{ID: "fr-1", VehicleType: domain.VehicleAuto, MinDistance: 0, MaxDistance: float64Ptr(5), PerKmRate: 10},
		{ID: "fr-2", VehicleType: domain.VehicleAuto, MinDistance: 8, PerKmRate: 8},
	})
	calculator := service.NewFareCalculator(rules, service.FractionIncentivePolicy{Fraction: 0.15})

	_, _, err := calculator.Compute(ctx, domain.VehicleAuto, 6)
	if !service.IsConfigurationError(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}

	var ce *service.ConfigurationError
	if !errors.As(err, &ce) || ce.Reason != "gap" {
		t.Errorf("expected gap reason, got %+v", ce)
	}
}

func TestFareCalculator_BandOverlapIsConfigurationError(t *testing.T) {
	ctx := context.Background()
	rules := NewMockRuleRepository()
	rules.SetFareRules([]domain.FareRule{
		{ID: "fr-1", VehicleType: domain.VehicleAuto, MinDistance: 0, MaxDistance: float64Ptr(6), PerKmRate: 10},
		{ID: "fr-2", VehicleType: domain.VehicleAuto, MinDistance: 5, PerKmRate: 8},
	})
	calculator := service.NewFareCalculator(rules, service.FractionIncentivePolicy{Fraction: 0.15})

	_, _, err := calculator.Compute(ctx, domain.VehicleAuto, 5.5)
	var ce *service.ConfigurationError
	if !errors.As(err, &ce) || ce.Reason != "overlap" {
		t.Fatalf("expected overlap configuration error, got %v", err)
	}
}

func TestFareCalculator_NegativeDistanceRejected(t *testing.T) {
	ctx := context.Background()
	_, calculator := newFareFixture()

	if _, _, err := calculator.Compute(ctx, domain.VehicleCarCity, -1); !errors.Is(err, service.ErrInvalidDistance) {
		t.Fatalf("expected ErrInvalidDistance, got %v", err)
	}
}

func TestRewardEngine_NoMatchingBandMeansNoReward(t *testing.T) {
	ctx := context.Background()
	rules := NewMockRuleRepository()
	rules.SetDistanceRewards([]domain.DistanceReward{
		{ID: "dr-1", MinDistance: 10, Cashback: 50},
	})
	engine := service.NewRewardEngine(rules)

	bundle, err := engine.Compute(ctx, domain.VehicleCarCity, 3)
	if err != nil {
		t.Fatalf("failed to compute reward: %v", err)
	}
	if !bundle.IsZero() {
		t.Errorf("expected empty bundle, got %+v", bundle)
	}
}

func TestRewardEngine_VehicleScopedBand(t *testing.T) {
	ctx := context.Background()
	rules := NewMockRuleRepository()
	rules.SetDistanceRewards([]domain.DistanceReward{
		{ID: "dr-1", VehicleType: domain.VehicleBike, MinDistance: 0, WaterBottles: 1},
		{ID: "dr-2", MinDistance: 0, Tea: 2},
	})
	engine := service.NewRewardEngine(rules)

	// Bike rides match the bike-scoped band first.
	bundle, err := engine.Compute(ctx, domain.VehicleBike, 2)
	if err != nil {
		t.Fatalf("failed to compute reward: %v", err)
	}
	if bundle.WaterBottles != 1 || bundle.Tea != 0 {
		t.Errorf("expected bike-scoped reward, got %+v", bundle)
	}

	// Other vehicle types fall through to the type-agnostic band.
	bundle, err = engine.Compute(ctx, domain.VehicleAuto, 2)
	if err != nil {
		t.Fatalf("failed to compute reward: %v", err)
	}
	if bundle.Tea != 2 {
		t.Errorf("expected type-agnostic reward, got %+v", bundle)
	}
}

func TestRewardEngine_TourismOffersMergeIntoBundle(t *testing.T) {
	ctx := context.Background()
	rules := NewMockRuleRepository()
	rules.SetDistanceRewards([]domain.DistanceReward{
		{ID: "dr-1", MinDistance: 0, Tea: 1, Discount: "10%"},
	})
	rules.SetTourismOffers([]domain.TourismOffer{
		{ID: "to-1", Name: "Hill Station Special", Discount: "20%", Tea: 2, WaterBottles: 3, LongTermDays: 5, Active: true},
		{ID: "to-2", Name: "Inactive Offer", Tea: 9, Active: false},
	})
	engine := service.NewRewardEngine(rules)

	bundle, err := engine.Compute(ctx, domain.VehicleTourismCar, 12)
	if err != nil {
		t.Fatalf("failed to compute reward: %v", err)
	}

	// Perk counts add up, the band discount wins, the offer lends its
	// name. The inactive offer contributes nothing.
	if bundle.Tea != 3 {
		t.Errorf("expected tea 3, got %d", bundle.Tea)
	}
	if bundle.WaterBottles != 3 {
		t.Errorf("expected water bottles 3, got %d", bundle.WaterBottles)
	}
	if bundle.Discount != "10%" {
		t.Errorf("expected band discount to win, got %s", bundle.Discount)
	}
	if bundle.Offer != "Hill Station Special" || bundle.LongTermDays != 5 {
		t.Errorf("expected offer metadata carried over, got %+v", bundle)
	}
}

func TestRewardEngine_TourismOffersIgnoredForCityRides(t *testing.T) {
	ctx := context.Background()
	rules := NewMockRuleRepository()
	rules.SetTourismOffers([]domain.TourismOffer{
		{ID: "to-1", Name: "Hill Station Special", Tea: 2, Active: true},
	})
	engine := service.NewRewardEngine(rules)

	bundle, err := engine.Compute(ctx, domain.VehicleCarCity, 12)
	if err != nil {
		t.Fatalf("failed to compute reward: %v", err)
	}
	if !bundle.IsZero() {
		t.Errorf("tourism offers must not leak into city rides, got %+v", bundle)
	}
}
