package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func newOTPFixture() (*MockOTPRepository, *MockUserRepository, *service.OTPService) {
	otpRepo := NewMockOTPRepository()
	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "user-1", Name: "Asha", Email: "asha@example.com", IsUser: true})
	svc := service.NewOTPService(otpRepo, userRepo, service.LogOTPSender{})
	return otpRepo, userRepo, svc
}

func TestOTP_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newOTPFixture()

	otp, err := svc.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to issue otp: %v", err)
	}
	if len(otp.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", otp.Code)
	}

	if err := svc.Verify(ctx, "user-1", otp.Code); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestOTP_SecondVerificationFails(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newOTPFixture()

	otp, err := svc.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to issue otp: %v", err)
	}

	if err := svc.Verify(ctx, "user-1", otp.Code); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	// Same correct code, second attempt.
	if err := svc.Verify(ctx, "user-1", otp.Code); !errors.Is(err, service.ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid on reuse, got %v", err)
	}
}

func TestOTP_ConcurrentVerifiersFirstWins(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newOTPFixture()

	otp, err := svc.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to issue otp: %v", err)
	}

	var successes int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Verify(ctx, "user-1", otp.Code); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful verification, got %d", successes)
	}
}

func TestOTP_ExpiredCodeRejected(t *testing.T) {
	ctx := context.Background()
	otpRepo, _, svc := newOTPFixture()

	otpRepo.AddOTP(&domain.OTP{
		ID:        "otp-1",
		UserID:    "user-1",
		Code:      "123456",
		CreatedAt: time.Now().Add(-domain.OTPValidity - time.Second),
	})

	if err := svc.Verify(ctx, "user-1", "123456"); !errors.Is(err, service.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
}

func TestOTP_WrongCodeRejected(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newOTPFixture()

	if _, err := svc.Issue(ctx, "user-1"); err != nil {
		t.Fatalf("failed to issue otp: %v", err)
	}

	if err := svc.Verify(ctx, "user-1", "000000x"); !errors.Is(err, service.ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}
}

func TestOTP_OnlyLatestCodeVerifies(t *testing.T) {
	ctx := context.Background()
	otpRepo, _, svc := newOTPFixture()

	otpRepo.AddOTP(&domain.OTP{
		ID:        "otp-old",
		UserID:    "user-1",
		Code:      "111111",
		CreatedAt: time.Now().Add(-time.Minute),
	})
	otpRepo.AddOTP(&domain.OTP{
		ID:        "otp-new",
		UserID:    "user-1",
		Code:      "222222",
		CreatedAt: time.Now(),
	})

	if err := svc.Verify(ctx, "user-1", "111111"); !errors.Is(err, service.ErrOTPInvalid) {
		t.Fatalf("expected superseded code to fail, got %v", err)
	}
	if err := svc.Verify(ctx, "user-1", "222222"); err != nil {
		t.Fatalf("latest code failed: %v", err)
	}
}
