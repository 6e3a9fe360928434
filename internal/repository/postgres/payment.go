package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// Create persists a new payment. The unique constraint on ride_id
// enforces the one-payment-per-ride invariant.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, ride_id, user_id, gateway_order_id, gateway_payment_id, signature, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.UserID,
		payment.GatewayOrderID,
		nullString(payment.GatewayPaymentID),
		nullString(payment.Signature),
		payment.Paid,
		payment.CreatedAt,
	)

	return err
}

// GetByRideID retrieves the payment for a ride. Returns (nil, nil)
// when no payment exists yet.
func (r *PaymentRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `
		SELECT id, ride_id, user_id, gateway_order_id, gateway_payment_id, signature, paid, created_at
		FROM payments WHERE ride_id = $1
	`

	var payment domain.Payment
	var gatewayPaymentID, signature sql.NullString

	err := r.q.QueryRowContext(ctx, query, rideID).Scan(
		&payment.ID,
		&payment.RideID,
		&payment.UserID,
		&payment.GatewayOrderID,
		&gatewayPaymentID,
		&signature,
		&payment.Paid,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	payment.GatewayPaymentID = gatewayPaymentID.String
	payment.Signature = signature.String

	return &payment, nil
}

// MarkPaid records the gateway confirmation exactly once. The paid
// guard in the WHERE clause makes a repeated confirm a no-op.
func (r *PaymentRepository) MarkPaid(ctx context.Context, paymentID, gatewayPaymentID, signature string) (bool, error) {
	query := `
		UPDATE payments
		SET gateway_payment_id = $1, signature = $2, paid = TRUE
		WHERE id = $3 AND paid = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, gatewayPaymentID, signature, paymentID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}
