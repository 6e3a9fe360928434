package service

import (
	"context"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// IncentivePolicy computes the driver incentive layered on top of the
// fare. It is a strategy so operators can change incentive rules
// without touching dispatch logic.
type IncentivePolicy interface {
	Incentive(vt domain.VehicleType, distanceKm, fare float64) float64
}

// FractionIncentivePolicy pays the driver a fixed fraction of the fare.
type FractionIncentivePolicy struct {
	Fraction float64
}

// Incentive returns fare * Fraction.
func (p FractionIncentivePolicy) Incentive(vt domain.VehicleType, distanceKm, fare float64) float64 {
	return fare * p.Fraction
}

// FlatBonusIncentivePolicy pays a fixed bonus per ride regardless of
// fare or distance.
type FlatBonusIncentivePolicy struct {
	Bonus float64
}

// Incentive returns the configured flat bonus.
func (p FlatBonusIncentivePolicy) Incentive(vt domain.VehicleType, distanceKm, fare float64) float64 {
	return p.Bonus
}

// FareCalculator computes fares from distance-banded rate tables.
// Computation itself is side-effect-free and safe for concurrent use;
// the only I/O is loading the bands.
type FareCalculator struct {
	rules  repository.FareRuleRepository
	policy IncentivePolicy
}

// NewFareCalculator creates a new FareCalculator.
func NewFareCalculator(rules repository.FareRuleRepository, policy IncentivePolicy) *FareCalculator {
	return &FareCalculator{
		rules:  rules,
		policy: policy,
	}
}

// Compute returns the fare and driver incentive for a ride of the
// given vehicle type and distance. A band gap or overlap surfaces as a
// *ConfigurationError; valid admin data never triggers it, but it is
// checked on every call rather than trusted.
func (c *FareCalculator) Compute(ctx context.Context, vt domain.VehicleType, distanceKm float64) (fare, incentive float64, err error) {
	if distanceKm < 0 {
		return 0, 0, ErrInvalidDistance
	}

	bands, err := c.rules.GetByVehicleType(ctx, vt)
	if err != nil {
		return 0, 0, err
	}

	fare, err = fareFromBands(bands, vt, distanceKm)
	if err != nil {
		return 0, 0, err
	}

	return fare, c.policy.Incentive(vt, distanceKm, fare), nil
}

// fareFromBands is the pure core of fare computation: find the single
// band containing distanceKm and charge the whole distance at its
// per-km rate. Deterministic and total over distance >= 0 for a
// gapless, non-overlapping band table.
func fareFromBands(bands []domain.FareRule, vt domain.VehicleType, distanceKm float64) (float64, error) {
	var matched *domain.FareRule
	for i := range bands {
		if !bands[i].Contains(distanceKm) {
			continue
		}
		if matched != nil {
			return 0, &ConfigurationError{VehicleType: vt, DistanceKm: distanceKm, Reason: "overlap"}
		}
		matched = &bands[i]
	}

	if matched == nil {
		return 0, &ConfigurationError{VehicleType: vt, DistanceKm: distanceKm, Reason: "gap"}
	}

	return distanceKm * matched.PerKmRate, nil
}
