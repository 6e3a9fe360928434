package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// OTPSender delivers a one-time code to the user out of band.
type OTPSender interface {
	Send(ctx context.Context, destination, code string) error
}

// LogOTPSender writes codes to the log. Development only.
type LogOTPSender struct{}

// Send logs the code instead of delivering it.
func (LogOTPSender) Send(ctx context.Context, destination, code string) error {
	log.Printf("otp: code for %s is %s", destination, code)
	return nil
}

// OTPService issues and verifies one-time login codes. A code is good
// for domain.OTPValidity after issue and for exactly one verification;
// when two verifications race, the first one wins.
type OTPService struct {
	otps   repository.OTPRepository
	users  repository.UserRepository
	sender OTPSender
}

// NewOTPService creates a new OTPService.
func NewOTPService(otps repository.OTPRepository, users repository.UserRepository, sender OTPSender) *OTPService {
	return &OTPService{
		otps:   otps,
		users:  users,
		sender: sender,
	}
}

// Issue generates a fresh 6-digit code for the user and hands it to
// the sender. Issuing a new code does not invalidate earlier ones;
// they expire on their own clock.
func (s *OTPService) Issue(ctx context.Context, userID string) (*domain.OTP, error) {
	if userID == "" {
		return nil, ErrInvalidRiderID
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	otp := &domain.OTP{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		CreatedAt: time.Now(),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, err
	}

	if err := s.sender.Send(ctx, user.Email, code); err != nil {
		// The code is persisted and verifiable; delivery can be
		// retried by issuing again.
		log.Printf("otp: send failed for user %s: %v", userID, err)
	}

	return otp, nil
}

// Verify checks the given code against the user's latest one. The
// mark-used update is conditional, so a second verification of the
// same code fails no matter how the two calls interleave.
func (s *OTPService) Verify(ctx context.Context, userID, code string) error {
	if userID == "" {
		return ErrInvalidRiderID
	}
	if code == "" {
		return ErrOTPInvalid
	}

	otp, err := s.otps.GetLatest(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOTPInvalid
		}
		return err
	}

	if otp.Code != code || otp.Used {
		return ErrOTPInvalid
	}
	if !otp.ValidAt(time.Now()) {
		return ErrOTPExpired
	}

	ok, err := s.otps.MarkUsed(ctx, otp.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOTPInvalid
	}

	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
