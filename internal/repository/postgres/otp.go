package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// OTPRepository is a PostgreSQL implementation of repository.OTPRepository.
type OTPRepository struct {
	q Querier
}

// NewOTPRepository creates a new PostgreSQL OTP repository.
func NewOTPRepository(db *sql.DB) *OTPRepository {
	return &OTPRepository{q: db}
}

// Create persists a new code.
func (r *OTPRepository) Create(ctx context.Context, otp *domain.OTP) error {
	query := `
		INSERT INTO otps (id, user_id, code, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query, otp.ID, otp.UserID, otp.Code, otp.Used, otp.CreatedAt)
	return err
}

// GetLatest retrieves the most recently issued code for a user.
func (r *OTPRepository) GetLatest(ctx context.Context, userID string) (*domain.OTP, error) {
	query := `
		SELECT id, user_id, code, is_used, created_at
		FROM otps WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1
	`

	var otp domain.OTP
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Code,
		&otp.Used,
		&otp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &otp, nil
}

// MarkUsed flips is_used exactly once. The is_used guard in the WHERE
// clause means the first concurrent verifier wins and every later one
// sees false.
func (r *OTPRepository) MarkUsed(ctx context.Context, otpID string) (bool, error) {
	query := `UPDATE otps SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`

	result, err := r.q.ExecContext(ctx, query, otpID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}
