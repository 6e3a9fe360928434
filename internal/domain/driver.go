package domain

import "time"

// DriverStatus represents the current availability of a driver.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "online"
	DriverStatusOffline DriverStatus = "offline"
	DriverStatusOnRide  DriverStatus = "on_ride"
)

// DriverLocation is the single current position of a driver.
// There is exactly one row per driver, overwritten on every ping.
type DriverLocation struct {
	DriverID  string
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}
