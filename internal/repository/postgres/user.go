package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, name, email, mobile, is_driver, is_user, vehicle_type, plate_number, status, created_at`

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		nullString(user.Mobile),
		user.IsDriver,
		user.IsUser,
		nullString(string(user.VehicleType)),
		nullString(user.PlateNumber),
		user.Status,
		user.CreatedAt,
	)

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var mobile, vehicleType, plateNumber sql.NullString
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&mobile,
			&user.IsDriver,
			&user.IsUser,
			&vehicleType,
			&plateNumber,
			&user.Status,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		user.Mobile = mobile.String
		user.VehicleType = domain.VehicleType(vehicleType.String)
		user.PlateNumber = plateNumber.String
		users = append(users, &user)
	}
	return users, rows.Err()
}

// UpdateStatus updates a driver's availability status.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE users SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var mobile, vehicleType, plateNumber sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&mobile,
		&user.IsDriver,
		&user.IsUser,
		&vehicleType,
		&plateNumber,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Mobile = mobile.String
	user.VehicleType = domain.VehicleType(vehicleType.String)
	user.PlateNumber = plateNumber.String

	return &user, nil
}
