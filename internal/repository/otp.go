package repository

import (
	"context"

	"dispatch/internal/domain"
)

// OTPRepository defines the persistence operations for one-time codes.
type OTPRepository interface {
	// Create persists a new code.
	Create(ctx context.Context, otp *domain.OTP) error

	// GetLatest retrieves the most recently issued code for a user.
	GetLatest(ctx context.Context, userID string) (*domain.OTP, error)

	// MarkUsed flips is_used to true. Returns false when the code was
	// already used; the first caller to succeed wins.
	MarkUsed(ctx context.Context, otpID string) (bool, error)
}
