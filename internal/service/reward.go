package service

import (
	"context"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RewardEngine computes the customer reward bundle for a ride from
// distance-banded reward tables and, for tourism rides, the flat
// special-offer table. Side-effect-free apart from loading the tables.
type RewardEngine struct {
	rewards repository.RewardRepository
}

// NewRewardEngine creates a new RewardEngine.
func NewRewardEngine(rewards repository.RewardRepository) *RewardEngine {
	return &RewardEngine{rewards: rewards}
}

// Compute returns the reward bundle for the given vehicle type and
// distance. No matching band is a valid state, not an error: the
// result is simply a zero-value bundle.
func (e *RewardEngine) Compute(ctx context.Context, vt domain.VehicleType, distanceKm float64) (domain.RewardBundle, error) {
	if distanceKm < 0 {
		return domain.RewardBundle{}, ErrInvalidDistance
	}

	rewards, err := e.rewards.GetDistanceRewards(ctx, vt)
	if err != nil {
		return domain.RewardBundle{}, err
	}

	bundle := bundleFromBands(rewards, vt, distanceKm)

	if vt != domain.VehicleTourismCar {
		return bundle, nil
	}

	offers, err := e.rewards.GetActiveTourismOffers(ctx)
	if err != nil {
		return domain.RewardBundle{}, err
	}

	return mergeTourismOffers(bundle, offers), nil
}

// bundleFromBands picks the first matching reward band. Unlike fare
// bands, reward bands are not required to be gapless; overlaps resolve
// to the earliest band by start distance.
func bundleFromBands(rewards []domain.DistanceReward, vt domain.VehicleType, distanceKm float64) domain.RewardBundle {
	for _, reward := range rewards {
		if !reward.AppliesTo(vt) || !reward.Contains(distanceKm) {
			continue
		}
		return domain.RewardBundle{
			Cashback:     reward.Cashback,
			WaterBottles: reward.WaterBottles,
			Tea:          reward.Tea,
			Discount:     reward.Discount,
		}
	}
	return domain.RewardBundle{}
}

// mergeTourismOffers folds the active flat offers into the band
// bundle: perk counts add up, the band's discount wins when both are
// set, and the first offer lends its name and multi-day qualifier.
func mergeTourismOffers(bundle domain.RewardBundle, offers []domain.TourismOffer) domain.RewardBundle {
	for _, offer := range offers {
		bundle.Tea += offer.Tea
		bundle.WaterBottles += offer.WaterBottles
		if bundle.Discount == "" {
			bundle.Discount = offer.Discount
		}
		if bundle.Offer == "" {
			bundle.Offer = offer.Name
			bundle.LongTermDays = offer.LongTermDays
		}
	}
	return bundle
}
