package service

import (
	"fmt"
	"time"

	"dispatch/internal/domain"
)

// RideStateMachine guards every ride lifecycle transition:
//
//	pending -> accepted -> completed
//	pending -> rejected
//
// completed and rejected are terminal. Guard violations surface as
// ErrInvalidTransition and are never silently ignored. The machine
// mutates only the ride struct handed to it; persistence is the
// caller's job.
type RideStateMachine struct{}

// NewRideStateMachine creates a new RideStateMachine.
func NewRideStateMachine() *RideStateMachine {
	return &RideStateMachine{}
}

// Accept transitions pending -> accepted and records the assignment.
// The candidate must not be in the ride's rejected set.
func (m *RideStateMachine) Accept(ride *domain.Ride, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if ride.Status != domain.RideStatusPending {
		return transitionErr(ride.Status, domain.RideStatusAccepted)
	}
	if ride.HasRejected(driverID) {
		return fmt.Errorf("%w: driver %s previously rejected ride %s", ErrInvalidTransition, driverID, ride.ID)
	}

	ride.Status = domain.RideStatusAccepted
	ride.DriverID = driverID
	return nil
}

// Complete transitions accepted -> completed and stamps the completion
// time. The ride must currently be assigned.
func (m *RideStateMachine) Complete(ride *domain.Ride, at time.Time) error {
	if ride.Status != domain.RideStatusAccepted {
		return transitionErr(ride.Status, domain.RideStatusCompleted)
	}
	if ride.DriverID == "" {
		return fmt.Errorf("%w: ride %s has no assigned driver", ErrInvalidTransition, ride.ID)
	}

	ride.Status = domain.RideStatusCompleted
	ride.Completed = true
	ride.CompletedAt = at
	return nil
}

// Reject transitions pending -> rejected (no driver found).
func (m *RideStateMachine) Reject(ride *domain.Ride) error {
	if ride.Status != domain.RideStatusPending {
		return transitionErr(ride.Status, domain.RideStatusRejected)
	}

	ride.Status = domain.RideStatusRejected
	return nil
}

// AttachRating records rider feedback. Permitted only on completed
// rides; terminal states accept no other mutation.
func (m *RideStateMachine) AttachRating(ride *domain.Ride, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if ride.Status != domain.RideStatusCompleted {
		return fmt.Errorf("%w: rating requires a completed ride, ride %s is %s", ErrInvalidTransition, ride.ID, ride.Status)
	}

	ride.Rating = rating
	ride.Feedback = feedback
	return nil
}

func transitionErr(from, to domain.RideStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
