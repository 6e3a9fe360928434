package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// ErrInvalidUser is returned when a registration is missing required
// fields.
var ErrInvalidUser = errors.New("invalid user")

// RegisterRequest carries the input for a new account.
type RegisterRequest struct {
	Name        string
	Email       string
	Mobile      string
	IsDriver    bool
	VehicleType string
	PlateNumber string
}

// UserService manages rider and driver accounts.
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Register creates a new account. Drivers must declare a vehicle type
// and start offline until their first location ping.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Mobile) == "" {
		return nil, ErrInvalidUser
	}
	if req.IsDriver && !domain.ValidVehicleType(req.VehicleType) {
		return nil, ErrInvalidVehicleType
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Mobile:    req.Mobile,
		IsDriver:  req.IsDriver,
		IsUser:    !req.IsDriver,
		Status:    domain.DriverStatusOffline,
		CreatedAt: time.Now(),
	}
	if req.IsDriver {
		user.VehicleType = domain.VehicleType(req.VehicleType)
		user.PlateNumber = req.PlateNumber
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidUser
	}
	return s.users.GetByID(ctx, id)
}

// List retrieves all users.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.GetAll(ctx)
}
