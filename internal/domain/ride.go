package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusPending   RideStatus = "pending"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusCompleted RideStatus = "completed"
	RideStatusRejected  RideStatus = "rejected"
)

// Terminal reports whether no transition leaves this status.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusRejected
}

// VehicleType represents the vehicle class requested for a ride.
type VehicleType string

const (
	VehicleBike       VehicleType = "bike"
	VehicleAuto       VehicleType = "auto"
	VehicleCarCity    VehicleType = "car_city"
	VehicleTourismCar VehicleType = "tourism_car"
)

// ValidVehicleType reports whether s names a known vehicle class.
func ValidVehicleType(s string) bool {
	switch VehicleType(s) {
	case VehicleBike, VehicleAuto, VehicleCarCity, VehicleTourismCar:
		return true
	}
	return false
}

// RewardBundle is the structured customer reward attached to a ride.
// A zero-value bundle means no reward applies, which is a valid state.
type RewardBundle struct {
	Cashback     float64 `json:"cashback,omitempty"`
	WaterBottles int     `json:"water_bottles,omitempty"`
	Tea          int     `json:"tea,omitempty"`
	Discount     string  `json:"discount,omitempty"`
	Offer        string  `json:"offer,omitempty"`
	LongTermDays int     `json:"long_term_days,omitempty"`
}

// IsZero reports whether the bundle carries nothing.
func (b RewardBundle) IsZero() bool {
	return b == RewardBundle{}
}

// Ride represents a ride request in the system.
//
// Fare, Incentive and Reward are set once, at acceptance time, and do
// not change afterwards. RejectedBy only ever grows; a driver in it is
// never offered the ride again and can never be assigned to it.
type Ride struct {
	ID          string
	RiderID     string
	DriverID    string // empty until a driver accepts
	Pickup      string
	Drop        string
	PickupLat   float64
	PickupLng   float64
	DistanceKm  float64
	VehicleType VehicleType
	Fare        float64
	Incentive   float64
	Reward      RewardBundle
	Status      RideStatus
	Completed   bool
	Paid        bool
	Rating      int // 0 = unrated, otherwise 1..5
	Feedback    string
	RejectedBy  []string
	CreatedAt   time.Time
	CompletedAt time.Time // zero unless Status is completed
}

// HasRejected reports whether driverID is in the ride's rejected set.
func (r *Ride) HasRejected(driverID string) bool {
	for _, id := range r.RejectedBy {
		if id == driverID {
			return true
		}
	}
	return false
}
