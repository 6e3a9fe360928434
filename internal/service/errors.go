package service

import (
	"errors"
	"fmt"

	"dispatch/internal/domain"
)

var (
	// ErrNoDriverAvailable is returned when dispatch exhausts its
	// candidates or offer budget; the ride moves to rejected.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrAlreadyResolved is returned to a driver whose accept or
	// decline lost a race: the offer timed out, went to someone else,
	// or the ride is no longer pending. Informational, not a fault.
	ErrAlreadyResolved = errors.New("ride already resolved")

	// ErrInvalidTransition is returned when a ride lifecycle guard is
	// violated. Never retried, always surfaced to the caller.
	ErrInvalidTransition = errors.New("invalid ride transition")

	// ErrPaymentVerificationFailed is returned on a gateway signature
	// mismatch. The payment stays unconfirmed and may be retried.
	ErrPaymentVerificationFailed = errors.New("payment signature verification failed")

	// ErrDispatchInProgress is returned when a second dispatch is
	// started for a ride that already has an active offer loop.
	ErrDispatchInProgress = errors.New("dispatch already in progress for ride")

	// ErrOTPInvalid is returned for a wrong or already-used code.
	ErrOTPInvalid = errors.New("invalid otp code")

	// ErrOTPExpired is returned for a code past its validity window.
	ErrOTPExpired = errors.New("otp code expired")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidVehicleType is returned for an unknown vehicle class.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")

	// ErrInvalidDistance is returned for a negative ride distance.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidRating is returned for a rating outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrNotADriver is returned when a driver-only operation is called
	// for an account without the driver role.
	ErrNotADriver = errors.New("user is not a driver")

	// ErrDriverNotAssigned is returned when a driver acts on a ride
	// that is assigned to someone else.
	ErrDriverNotAssigned = errors.New("driver not assigned to this ride")
)

// ConfigurationError reports a gap or overlap in the fare or reward
// band configuration for a vehicle type. It is an administrator
// problem, never a per-ride runtime failure, and it blocks dispatch
// for the affected vehicle type until fixed.
type ConfigurationError struct {
	VehicleType domain.VehicleType
	DistanceKm  float64
	Reason      string // "gap" or "overlap"
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("fare configuration %s for %s at %.2f km", e.Reason, e.VehicleType, e.DistanceKm)
}

// IsConfigurationError reports whether err is a band configuration error.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
