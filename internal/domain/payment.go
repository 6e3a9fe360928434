package domain

import "time"

// Payment is the gateway settlement record for a ride. One per ride.
//
// GatewayPaymentID and Signature are empty until the gateway confirms;
// Paid flips to true only after signature verification succeeds.
type Payment struct {
	ID               string
	RideID           string
	UserID           string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	Paid             bool
	CreatedAt        time.Time
}
