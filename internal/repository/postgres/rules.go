package postgres

import (
	"context"
	"database/sql"

	"dispatch/internal/domain"
)

// RuleRepository is a PostgreSQL implementation of the fare and reward
// reference-data repositories. The tables are administrator-managed;
// dispatch only reads them.
type RuleRepository struct {
	q Querier
}

// NewRuleRepository creates a new PostgreSQL rule repository.
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{q: db}
}

// GetByVehicleType retrieves all fare bands for one vehicle type,
// ordered by band start.
func (r *RuleRepository) GetByVehicleType(ctx context.Context, vt domain.VehicleType) ([]domain.FareRule, error) {
	query := `
		SELECT id, vehicle_type, min_distance, max_distance, per_km_rate
		FROM fare_rules WHERE vehicle_type = $1 ORDER BY min_distance
	`

	rows, err := r.q.QueryContext(ctx, query, vt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.FareRule
	for rows.Next() {
		var rule domain.FareRule
		var maxDistance sql.NullFloat64
		if err := rows.Scan(&rule.ID, &rule.VehicleType, &rule.MinDistance, &maxDistance, &rule.PerKmRate); err != nil {
			return nil, err
		}
		if maxDistance.Valid {
			rule.MaxDistance = &maxDistance.Float64
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetDistanceRewards retrieves the reward bands applicable to a
// vehicle type, including type-agnostic bands.
func (r *RuleRepository) GetDistanceRewards(ctx context.Context, vt domain.VehicleType) ([]domain.DistanceReward, error) {
	query := `
		SELECT id, vehicle_type, min_distance, max_distance, cashback, water_bottles, tea, discount
		FROM distance_rewards
		WHERE vehicle_type = $1 OR vehicle_type IS NULL
		ORDER BY min_distance
	`

	rows, err := r.q.QueryContext(ctx, query, vt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rewards []domain.DistanceReward
	for rows.Next() {
		var reward domain.DistanceReward
		var vehicleType, discount sql.NullString
		var maxDistance sql.NullFloat64
		if err := rows.Scan(
			&reward.ID,
			&vehicleType,
			&reward.MinDistance,
			&maxDistance,
			&reward.Cashback,
			&reward.WaterBottles,
			&reward.Tea,
			&discount,
		); err != nil {
			return nil, err
		}
		reward.VehicleType = domain.VehicleType(vehicleType.String)
		reward.Discount = discount.String
		if maxDistance.Valid {
			reward.MaxDistance = &maxDistance.Float64
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}

// GetActiveTourismOffers retrieves the currently active tourism
// special offers.
func (r *RuleRepository) GetActiveTourismOffers(ctx context.Context) ([]domain.TourismOffer, error) {
	query := `
		SELECT id, name, discount, tea, water_bottles, long_term_days, active
		FROM tourism_offers WHERE active = TRUE ORDER BY name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []domain.TourismOffer
	for rows.Next() {
		var offer domain.TourismOffer
		var discount sql.NullString
		if err := rows.Scan(
			&offer.ID,
			&offer.Name,
			&discount,
			&offer.Tea,
			&offer.WaterBottles,
			&offer.LongTermDays,
			&offer.Active,
		); err != nil {
			return nil, err
		}
		offer.Discount = discount.String
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}
