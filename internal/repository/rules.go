package repository

import (
	"context"

	"dispatch/internal/domain"
)

// FareRuleRepository provides read access to fare reference data.
// Rules are administrator-managed and read-only from dispatch.
type FareRuleRepository interface {
	// GetByVehicleType retrieves all bands for one vehicle type.
	GetByVehicleType(ctx context.Context, vt domain.VehicleType) ([]domain.FareRule, error)
}

// RewardRepository provides read access to reward reference data.
type RewardRepository interface {
	// GetDistanceRewards retrieves the reward bands applicable to a
	// vehicle type, including type-agnostic bands.
	GetDistanceRewards(ctx context.Context, vt domain.VehicleType) ([]domain.DistanceReward, error)

	// GetActiveTourismOffers retrieves the currently active tourism
	// special offers.
	GetActiveTourismOffers(ctx context.Context) ([]domain.TourismOffer, error)
}
