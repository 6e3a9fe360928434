package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

// GetUser returns a user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Accept
// mirrors the conditional update of the real repository: it succeeds
// at most once per ride.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount      int32
	UpdateCallCount      int32
	AcceptCallCount      int32
	AddRejectedCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	AcceptError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository. It stores a copy so the
// caller's ride and the repository's row stay distinct, like a real
// database row.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	copy.RejectedBy = append([]string(nil), ride.RejectedBy...)
	m.rides[ride.ID] = &copy
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	copy.RejectedBy = append([]string(nil), ride.RejectedBy...)
	return &copy, nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok {
		return repository.ErrNotFound
	}
	rejected := stored.RejectedBy
	copy := *ride
	copy.RejectedBy = rejected
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) AddRejected(ctx context.Context, rideID, driverID string) error {
	atomic.AddInt32(&m.AddRejectedCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if !ride.HasRejected(driverID) {
		ride.RejectedBy = append(ride.RejectedBy, driverID)
	}
	return nil
}

func (m *MockRideRepository) Accept(ctx context.Context, ride *domain.Ride) (bool, error) {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	if m.AcceptError != nil {
		return false, m.AcceptError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if stored.Status != domain.RideStatusPending || stored.HasRejected(ride.DriverID) {
		return false, nil
	}
	stored.Status = domain.RideStatusAccepted
	stored.DriverID = ride.DriverID
	stored.Fare = ride.Fare
	stored.Incentive = ride.Incentive
	stored.Reward = ride.Reward
	return true, nil
}

// GetRide returns a ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
// MarkPaid succeeds at most once per payment, like the real
// conditional update.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment // keyed by payment ID

	// Counters for verification
	CreateCallCount   int32
	MarkPaidCallCount int32

	// Error injection
	CreateError   error
	MarkPaidError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.RideID == rideID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) MarkPaid(ctx context.Context, paymentID, gatewayPaymentID, signature string) (bool, error) {
	atomic.AddInt32(&m.MarkPaidCallCount, 1)
	if m.MarkPaidError != nil {
		return false, m.MarkPaidError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[paymentID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if payment.Paid {
		return false, nil
	}
	payment.Paid = true
	payment.GatewayPaymentID = gatewayPaymentID
	payment.Signature = signature
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK RULE REPOSITORY
// ──────────────────────────────────────────────

// MockRuleRepository is a mock implementation of FareRuleRepository
// and RewardRepository.
type MockRuleRepository struct {
	mu            sync.RWMutex
	fareRules     []domain.FareRule
	rewards       []domain.DistanceReward
	tourismOffers []domain.TourismOffer

	// Error injection
	FareRulesError error
	RewardsError   error
	OffersError    error
}

// NewMockRuleRepository creates a new mock rule repository.
func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{}
}

// SetFareRules replaces the fare rule table.
func (m *MockRuleRepository) SetFareRules(rules []domain.FareRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fareRules = rules
}

// SetDistanceRewards replaces the distance reward table.
func (m *MockRuleRepository) SetDistanceRewards(rewards []domain.DistanceReward) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewards = rewards
}

// SetTourismOffers replaces the tourism offer table.
func (m *MockRuleRepository) SetTourismOffers(offers []domain.TourismOffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tourismOffers = offers
}

func (m *MockRuleRepository) GetByVehicleType(ctx context.Context, vt domain.VehicleType) ([]domain.FareRule, error) {
	if m.FareRulesError != nil {
		return nil, m.FareRulesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.FareRule, 0, len(m.fareRules))
	for _, rule := range m.fareRules {
		if rule.VehicleType == vt {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (m *MockRuleRepository) GetDistanceRewards(ctx context.Context, vt domain.VehicleType) ([]domain.DistanceReward, error) {
	if m.RewardsError != nil {
		return nil, m.RewardsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.DistanceReward, 0, len(m.rewards))
	for _, reward := range m.rewards {
		if reward.AppliesTo(vt) {
			result = append(result, reward)
		}
	}
	return result, nil
}

func (m *MockRuleRepository) GetActiveTourismOffers(ctx context.Context) ([]domain.TourismOffer, error) {
	if m.OffersError != nil {
		return nil, m.OffersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.TourismOffer, 0, len(m.tourismOffers))
	for _, offer := range m.tourismOffers {
		if offer.Active {
			result = append(result, offer)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK OTP REPOSITORY
// ──────────────────────────────────────────────

// MockOTPRepository is a mock implementation of OTPRepository. MarkUsed
// succeeds at most once per code; concurrent verifiers race on the
// same mutex the way they race on the row in PostgreSQL.
type MockOTPRepository struct {
	mu   sync.RWMutex
	otps map[string]*domain.OTP

	// Counters for verification
	CreateCallCount   int32
	MarkUsedCallCount int32

	// Error injection
	CreateError error
}

// NewMockOTPRepository creates a new mock OTP repository.
func NewMockOTPRepository() *MockOTPRepository {
	return &MockOTPRepository{
		otps: make(map[string]*domain.OTP),
	}
}

// AddOTP adds a code to the mock repository.
func (m *MockOTPRepository) AddOTP(otp *domain.OTP) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[otp.ID] = otp
}

func (m *MockOTPRepository) Create(ctx context.Context, otp *domain.OTP) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[otp.ID] = otp
	return nil
}

func (m *MockOTPRepository) GetLatest(ctx context.Context, userID string) (*domain.OTP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.OTP
	for _, otp := range m.otps {
		if otp.UserID != userID {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

func (m *MockOTPRepository) MarkUsed(ctx context.Context, otpID string) (bool, error) {
	atomic.AddInt32(&m.MarkUsedCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	otp, ok := m.otps[otpID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if otp.Used {
		return false, nil
	}
	otp.Used = true
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION REPOSITORY
// ──────────────────────────────────────────────

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications []*domain.Notification

	// Error injection
	CreateError error
}

// NewMockNotificationRepository creates a new mock notification repository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MockNotificationRepository) GetByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

// CountForUser returns the number of stored notifications for a user.
func (m *MockNotificationRepository) CountForUser(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK LOCATION REPOSITORY
// ──────────────────────────────────────────────

// MockLocationRepository is a mock implementation of LocationRepository.
type MockLocationRepository struct {
	mu        sync.RWMutex
	locations map[string]*domain.DriverLocation

	// Counters for verification
	UpsertCallCount int32

	// Error injection
	UpsertError error
}

// NewMockLocationRepository creates a new mock location repository.
func NewMockLocationRepository() *MockLocationRepository {
	return &MockLocationRepository{
		locations: make(map[string]*domain.DriverLocation),
	}
}

func (m *MockLocationRepository) Upsert(ctx context.Context, loc *domain.DriverLocation) error {
	atomic.AddInt32(&m.UpsertCallCount, 1)
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.DriverID] = loc
	return nil
}

func (m *MockLocationRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *loc
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
// Positions are returned in insertion order, standing in for the
// distance ordering of the real geo index.
type MockLocationStore struct {
	mu        sync.RWMutex
	positions map[domain.VehicleType][]redis.DriverPosition

	// Error injection
	FindError   error
	UpdateError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		positions: make(map[domain.VehicleType][]redis.DriverPosition),
	}
}

// SetPositions replaces the stored positions for one vehicle type.
func (m *MockLocationStore) SetPositions(vt domain.VehicleType, positions []redis.DriverPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[vt] = positions
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, vt domain.VehicleType, lat, lng float64) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pos := range m.positions[vt] {
		if pos.DriverID == driverID {
			m.positions[vt][i].Lat = lat
			m.positions[vt][i].Lng = lng
			return nil
		}
	}
	m.positions[vt] = append(m.positions[vt], redis.DriverPosition{
		DriverID: driverID,
		Lat:      lat,
		Lng:      lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, vt domain.VehicleType, lat, lng, radiusKm float64, freshness time.Duration) ([]redis.DriverPosition, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]redis.DriverPosition(nil), m.positions[vt]...), nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string, vt domain.VehicleType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	positions := m.positions[vt]
	for i, pos := range positions {
		if pos.DriverID == driverID {
			m.positions[vt] = append(positions[:i], positions[i+1:]...)
			return nil
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface with
// SETNX semantics and no TTL expiry.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireDriverCallCount int32
	AcquireRideCallCount   int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireDriverCallCount, 1)
	return m.acquire("driver:" + driverID)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	m.release("driver:" + driverID)
	return nil
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireRideCallCount, 1)
	return m.acquire("ride:" + rideID)
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	m.release("ride:" + rideID)
	return nil
}

// Held reports whether a driver lock is currently held.
func (m *MockLockStore) Held(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks["driver:"+driverID]
}

func (m *MockLockStore) acquire(key string) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
}
