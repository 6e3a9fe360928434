package tests

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

const gatewaySecret = "test-secret"

func signConfirmation(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(gatewaySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentFixture() (*MockPaymentRepository, *MockRideRepository, *MockNotificationRepository, *service.PaymentReconciler) {
	paymentRepo := NewMockPaymentRepository()
	rideRepo := NewMockRideRepository()
	notificationRepo := NewMockNotificationRepository()
	gateway := service.NewHMACGateway("key-id", gatewaySecret)
	notifier := service.NewNotificationService(notificationRepo)
	reconciler := service.NewPaymentReconciler(paymentRepo, rideRepo, gateway, notifier)

	rideRepo.AddRide(&domain.Ride{
		ID:          "ride-1",
		RiderID:     "rider-1",
		VehicleType: domain.VehicleCarCity,
		DistanceKm:  7,
		Fare:        56,
		DriverID:    "driver-1",
		Status:      domain.RideStatusCompleted,
		Completed:   true,
		CreatedAt:   time.Now(),
	})

	return paymentRepo, rideRepo, notificationRepo, reconciler
}

func TestPayment_CreateOrderIsIdempotentPerRide(t *testing.T) {
	ctx := context.Background()
	paymentRepo, _, _, reconciler := newPaymentFixture()

	first, err := reconciler.CreateOrder(ctx, "ride-1")
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if first.GatewayOrderID == "" {
		t.Fatal("expected a gateway order id")
	}

	second, err := reconciler.CreateOrder(ctx, "ride-1")
	if err != nil {
		t.Fatalf("repeat create failed: %v", err)
	}
	if second.ID != first.ID || second.GatewayOrderID != first.GatewayOrderID {
		t.Errorf("expected the existing payment back, got %+v vs %+v", first, second)
	}
	if count := paymentRepo.CreateCallCount; count != 1 {
		t.Errorf("expected 1 persisted payment, got %d", count)
	}
}

func TestPayment_CreateOrderRequiresAcceptedRide(t *testing.T) {
	ctx := context.Background()
	_, rideRepo, _, reconciler := newPaymentFixture()

	rideRepo.AddRide(&domain.Ride{
		ID:      "ride-pending",
		RiderID: "rider-1",
		Status:  domain.RideStatusPending,
	})

	if _, err := reconciler.CreateOrder(ctx, "ride-pending"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPayment_ConfirmVerifiesSignature(t *testing.T) {
	ctx := context.Background()
	_, rideRepo, notificationRepo, reconciler := newPaymentFixture()

	order, err := reconciler.CreateOrder(ctx, "ride-1")
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	signature := signConfirmation(order.GatewayOrderID, "pay-1")
	payment, err := reconciler.Confirm(ctx, "ride-1", "pay-1", signature)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !payment.Paid {
		t.Fatal("expected payment marked paid")
	}

	if ride := rideRepo.GetRide("ride-1"); !ride.Paid {
		t.Error("expected ride flagged paid")
	}
	if notificationRepo.CountForUser("rider-1") == 0 {
		t.Error("rider should have been notified of the settlement")
	}
}

func TestPayment_BadSignatureLeavesPaymentUnpaid(t *testing.T) {
	ctx := context.Background()
	_, rideRepo, _, reconciler := newPaymentFixture()

	if _, err := reconciler.CreateOrder(ctx, "ride-1"); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	_, err := reconciler.Confirm(ctx, "ride-1", "pay-1", "forged")
	if !errors.Is(err, service.ErrPaymentVerificationFailed) {
		t.Fatalf("expected ErrPaymentVerificationFailed, got %v", err)
	}

	stored, err := reconciler.CreateOrder(ctx, "ride-1")
	if err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if stored.Paid {
		t.Error("payment must stay unpaid after a bad signature")
	}
	if rideRepo.GetRide("ride-1").Paid {
		t.Error("ride must stay unpaid after a bad signature")
	}
}

func TestPayment_RepeatedConfirmIsNoOp(t *testing.T) {
	ctx := context.Background()
	paymentRepo, _, _, reconciler := newPaymentFixture()

	order, err := reconciler.CreateOrder(ctx, "ride-1")
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	signature := signConfirmation(order.GatewayOrderID, "pay-1")

	if _, err := reconciler.Confirm(ctx, "ride-1", "pay-1", signature); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	payment, err := reconciler.Confirm(ctx, "ride-1", "pay-1", signature)
	if err != nil {
		t.Fatalf("repeat confirm failed: %v", err)
	}
	if !payment.Paid {
		t.Error("repeat confirm should still report paid")
	}

	// The conditional update fired twice but flipped the row once.
	if paymentRepo.MarkPaidCallCount != 2 {
		t.Errorf("expected 2 MarkPaid attempts, got %d", paymentRepo.MarkPaidCallCount)
	}
}

func TestPayment_ConfirmWithoutOrderFails(t *testing.T) {
	ctx := context.Background()
	_, _, _, reconciler := newPaymentFixture()

	_, err := reconciler.Confirm(ctx, "ride-1", "pay-1", "whatever")
	if err == nil {
		t.Fatal("expected an error for a ride with no payment order")
	}
}
