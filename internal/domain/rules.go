package domain

// FareRule maps a half-open distance band [MinDistance, MaxDistance)
// to a per-km rate for one vehicle type. A nil MaxDistance means the
// band is unbounded ("and above").
//
// For a given vehicle type the configured bands must not overlap and
// must cover [0, inf) with no gaps. A violation is a configuration
// error surfaced to the administrator, never a per-ride failure.
type FareRule struct {
	ID          string
	VehicleType VehicleType
	MinDistance float64
	MaxDistance *float64
	PerKmRate   float64
}

// Contains reports whether distanceKm falls inside the rule's band.
func (f FareRule) Contains(distanceKm float64) bool {
	if distanceKm < f.MinDistance {
		return false
	}
	return f.MaxDistance == nil || distanceKm < *f.MaxDistance
}

// DistanceReward maps a distance band to a customer reward payload.
// An empty VehicleType applies the reward to every vehicle class.
type DistanceReward struct {
	ID           string
	VehicleType  VehicleType // empty = any
	MinDistance  float64
	MaxDistance  *float64
	Cashback     float64
	WaterBottles int
	Tea          int
	Discount     string
}

// Contains reports whether distanceKm falls inside the reward's band.
func (d DistanceReward) Contains(distanceKm float64) bool {
	if distanceKm < d.MinDistance {
		return false
	}
	return d.MaxDistance == nil || distanceKm < *d.MaxDistance
}

// AppliesTo reports whether the reward covers the given vehicle type.
func (d DistanceReward) AppliesTo(vt VehicleType) bool {
	return d.VehicleType == "" || d.VehicleType == vt
}

// TourismOffer is a named special offer for tourism_car rides. Offers
// are flat: no distance band is involved.
type TourismOffer struct {
	ID           string
	Name         string
	Discount     string
	Tea          int
	WaterBottles int
	LongTermDays int // multi-day qualifier, 0 = none
	Active       bool
}
