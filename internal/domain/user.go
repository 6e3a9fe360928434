package domain

import "time"

// User represents a rider or driver account.
//
// Authentication and document approval are handled outside this
// service; the row exists because dispatch, payments and OTPs
// reference it.
type User struct {
	ID          string
	Name        string
	Email       string
	Mobile      string
	IsDriver    bool
	IsUser      bool
	VehicleType VehicleType // drivers only
	PlateNumber string      // drivers only
	Status      DriverStatus
	CreatedAt   time.Time
}
