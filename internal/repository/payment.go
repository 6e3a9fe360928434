package repository

import (
	"context"

	"dispatch/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByRideID retrieves the payment for a ride. Returns
	// (nil, nil) when no payment exists yet.
	GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error)

	// MarkPaid records the gateway confirmation and flips paid to
	// true. Returns false when the payment was already paid, without
	// mutating anything.
	MarkPaid(ctx context.Context, paymentID, gatewayPaymentID, signature string) (bool, error)
}
