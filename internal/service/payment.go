package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PaymentGateway abstracts the payment provider. Order creation
// reserves a gateway-side order; signature verification proves the
// confirmation callback really came from the gateway.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// HMACGateway signs and verifies with HMAC-SHA256 over
// "orderID|paymentID", the scheme used by the upstream provider.
type HMACGateway struct {
	keyID  string
	secret string
}

// NewHMACGateway creates a gateway client with the given credentials.
func NewHMACGateway(keyID, secret string) *HMACGateway {
	return &HMACGateway{keyID: keyID, secret: secret}
}

// CreateOrder reserves a new order ID.
func (g *HMACGateway) CreateOrder(ctx context.Context, amount float64) (string, error) {
	return "order_" + uuid.New().String(), nil
}

// VerifySignature checks the confirmation signature in constant time.
func (g *HMACGateway) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PaymentReconciler owns the payment lifecycle for rides: one payment
// per ride, created against the gateway and flipped to paid only after
// the gateway signature verifies. Confirmations are idempotent.
type PaymentReconciler struct {
	payments repository.PaymentRepository
	rides    repository.RideRepository
	gateway  PaymentGateway
	notifier *NotificationService
}

// NewPaymentReconciler creates a new PaymentReconciler.
func NewPaymentReconciler(
	payments repository.PaymentRepository,
	rides repository.RideRepository,
	gateway PaymentGateway,
	notifier *NotificationService,
) *PaymentReconciler {
	return &PaymentReconciler{
		payments: payments,
		rides:    rides,
		gateway:  gateway,
		notifier: notifier,
	}
}

// CreateOrder opens the gateway order for a ride's fare. Calling it
// again for the same ride returns the existing payment instead of
// opening a second order.
func (s *PaymentReconciler) CreateOrder(ctx context.Context, rideID string) (*domain.Payment, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusAccepted && ride.Status != domain.RideStatusCompleted {
		return nil, fmt.Errorf("%w: payment requires an accepted ride, ride %s is %s", ErrInvalidTransition, rideID, ride.Status)
	}

	existing, err := s.payments.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	orderID, err := s.gateway.CreateOrder(ctx, ride.Fare)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		RideID:         rideID,
		UserID:         ride.RiderID,
		GatewayOrderID: orderID,
		CreatedAt:      time.Now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// Confirm settles a payment from the gateway callback. The signature
// must verify against the stored order; a mismatch leaves the payment
// unpaid and is retryable. A repeat confirmation of an already-paid
// payment with a valid signature is a no-op success.
func (s *PaymentReconciler) Confirm(ctx context.Context, rideID, gatewayPaymentID, signature string) (*domain.Payment, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	payment, err := s.payments.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, repository.ErrNotFound
	}

	if !s.gateway.VerifySignature(payment.GatewayOrderID, gatewayPaymentID, signature) {
		return nil, ErrPaymentVerificationFailed
	}

	ok, err := s.payments.MarkPaid(ctx, payment.ID, gatewayPaymentID, signature)
	if err != nil {
		return nil, err
	}

	payment.GatewayPaymentID = gatewayPaymentID
	payment.Signature = signature
	payment.Paid = true

	if !ok {
		// Already settled by an earlier confirmation.
		return payment, nil
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	ride.Paid = true
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, payment.UserID, "Payment received",
		fmt.Sprintf("Payment for your ride was confirmed. Amount %.2f", ride.Fare))

	return payment, nil
}
