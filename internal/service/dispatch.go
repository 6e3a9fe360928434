package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"dispatch/internal/config"
	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// DispatchResult is the outcome of one dispatch loop.
type DispatchResult struct {
	RideID   string
	DriverID string
	Assigned bool
	Err      error
}

// driverReply is one driver's answer to an offer.
type driverReply struct {
	driverID string
	accepted bool
}

// offerState is the resolve-once record for a single outstanding
// offer. Exactly one of the driver's response or the dispatch timeout
// flips resolved; the loser observes resolved and backs off. The
// replies channel is buffered so the winning Respond never blocks.
type offerState struct {
	mu       sync.Mutex
	driverID string
	resolved bool
	replies  chan driverReply
}

func newOfferState(driverID string) *offerState {
	return &offerState{
		driverID: driverID,
		replies:  make(chan driverReply, 1),
	}
}

// DispatchCoordinator matches pending rides to drivers. Each ride gets
// its own dispatch goroutine that offers the ride to one candidate at
// a time, nearest first, and waits for an accept, a decline, or the
// offer timeout before moving on. There is no global matching lock;
// cross-ride contention for a driver is settled by the Redis driver
// lock and the atomicity of the conditional accept update.
type DispatchCoordinator struct {
	cfg       config.DispatchConfig
	rides     repository.RideRepository
	users     repository.UserRepository
	registry  *LocationRegistry
	fares     *FareCalculator
	rewards   *RewardEngine
	lifecycle *RideStateMachine
	locks     redis.LockStoreInterface
	notifier  *NotificationService

	mu     sync.RWMutex
	offers map[string]*offerState // keyed by ride ID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatchCoordinator creates a new DispatchCoordinator.
func NewDispatchCoordinator(
	cfg config.DispatchConfig,
	rides repository.RideRepository,
	users repository.UserRepository,
	registry *LocationRegistry,
	fares *FareCalculator,
	rewards *RewardEngine,
	lifecycle *RideStateMachine,
	locks redis.LockStoreInterface,
	notifier *NotificationService,
) *DispatchCoordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &DispatchCoordinator{
		cfg:       cfg,
		rides:     rides,
		users:     users,
		registry:  registry,
		fares:     fares,
		rewards:   rewards,
		lifecycle: lifecycle,
		locks:     locks,
		notifier:  notifier,
		offers:    make(map[string]*offerState),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Dispatch starts the matching loop for a pending ride and returns a
// channel that will carry exactly one result. The loop outlives the
// caller's request; it stops only on resolution or coordinator
// shutdown. Starting a second loop for the same ride fails with
// ErrDispatchInProgress.
func (c *DispatchCoordinator) Dispatch(ctx context.Context, ride *domain.Ride) (<-chan DispatchResult, error) {
	if ride.Status != domain.RideStatusPending {
		return nil, fmt.Errorf("%w: ride %s is %s", ErrInvalidTransition, ride.ID, ride.Status)
	}

	lockTTL := time.Duration(c.cfg.MaxRounds+1) * c.cfg.OfferTimeout
	ok, err := c.locks.AcquireRideLock(ctx, ride.ID, lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDispatchInProgress
	}

	results := make(chan DispatchResult, 1)
	c.wg.Add(1)
	go c.run(ride, results)

	return results, nil
}

// Respond delivers a driver's answer to the ride's outstanding offer.
// It returns ErrAlreadyResolved when there is no live offer for this
// driver: the offer timed out, went to another driver, or the ride is
// already resolved. First resolution wins; a late answer is rejected
// here, never applied.
func (c *DispatchCoordinator) Respond(ctx context.Context, rideID, driverID string, accept bool) error {
	if rideID == "" {
		return ErrInvalidRideID
	}
	if driverID == "" {
		return ErrInvalidDriverID
	}

	c.mu.RLock()
	st := c.offers[rideID]
	c.mu.RUnlock()

	if st == nil {
		return ErrAlreadyResolved
	}

	st.mu.Lock()
	if st.resolved || st.driverID != driverID {
		st.mu.Unlock()
		return ErrAlreadyResolved
	}
	st.resolved = true
	st.mu.Unlock()

	st.replies <- driverReply{driverID: driverID, accepted: accept}
	return nil
}

// Stop cancels all dispatch loops and waits for them to finish.
func (c *DispatchCoordinator) Stop() {
	c.cancel()
	c.wg.Wait()
}

func (c *DispatchCoordinator) run(ride *domain.Ride, results chan<- DispatchResult) {
	defer c.wg.Done()
	defer func() {
		if err := c.locks.ReleaseRideLock(context.Background(), ride.ID); err != nil {
			log.Printf("dispatch: ride lock release failed for %s: %v", ride.ID, err)
		}
	}()

	ctx := c.ctx

	// The quote is fixed before the first offer so every candidate is
	// offered the same numbers. A band configuration error blocks
	// dispatch for this vehicle type; the ride stays pending for
	// re-dispatch once an administrator fixes the table.
	fare, incentive, err := c.fares.Compute(ctx, ride.VehicleType, ride.DistanceKm)
	if err != nil {
		log.Printf("dispatch: fare quote failed for ride %s: %v", ride.ID, err)
		results <- DispatchResult{RideID: ride.ID, Err: err}
		return
	}
	reward, err := c.rewards.Compute(ctx, ride.VehicleType, ride.DistanceKm)
	if err != nil {
		log.Printf("dispatch: reward quote failed for ride %s: %v", ride.ID, err)
		results <- DispatchResult{RideID: ride.ID, Err: err}
		return
	}

	rejected := make(map[string]bool, len(ride.RejectedBy))
	for _, id := range ride.RejectedBy {
		rejected[id] = true
	}
	// Drivers skipped in this loop without being rejected, e.g. locked
	// by another ride's dispatch. They stay eligible for later rides.
	skipped := make(map[string]bool)

	for round := 0; round < c.cfg.MaxRounds; round++ {
		driverID, err := c.claimCandidate(ctx, ride, rejected, skipped)
		if err != nil {
			results <- DispatchResult{RideID: ride.ID, Err: err}
			return
		}
		if driverID == "" {
			break
		}

		reply, live := c.offer(ctx, ride, driverID)
		if !live {
			c.releaseDriver(driverID)
			results <- DispatchResult{RideID: ride.ID, Err: ctx.Err()}
			return
		}

		if reply.accepted {
			res := c.finalize(ctx, ride, driverID, fare, incentive, reward)
			results <- res
			return
		}

		// Decline or timeout: the driver never sees this ride again.
		if err := c.rides.AddRejected(ctx, ride.ID, driverID); err != nil {
			c.releaseDriver(driverID)
			results <- DispatchResult{RideID: ride.ID, Err: err}
			return
		}
		rejected[driverID] = true
		c.releaseDriver(driverID)
	}

	results <- c.reject(ctx, ride)
}

// claimCandidate picks the nearest eligible driver and takes its Redis
// lock. Drivers locked by another dispatch are skipped for this ride
// without consuming the offer round. Returns "" when nobody is left.
func (c *DispatchCoordinator) claimCandidate(ctx context.Context, ride *domain.Ride, rejected, skipped map[string]bool) (string, error) {
	exclude := make(map[string]bool, len(rejected)+len(skipped))
	for id := range rejected {
		exclude[id] = true
	}
	for id := range skipped {
		exclude[id] = true
	}

	for {
		candidates, err := c.registry.Candidates(ctx, ride.VehicleType, ride.PickupLat, ride.PickupLng, c.cfg.SearchRadiusKm, exclude)
		if err != nil {
			return "", err
		}
		if len(candidates) == 0 {
			return "", nil
		}

		candidate := candidates[0].DriverID
		ok, err := c.locks.AcquireDriverLock(ctx, candidate, c.cfg.OfferTimeout+5*time.Second)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}

		skipped[candidate] = true
		exclude[candidate] = true
	}
}

// offer registers the resolve-once state for one offer, notifies the
// driver, and waits for the reply or the timeout. The second return is
// false only when the coordinator is shutting down.
func (c *DispatchCoordinator) offer(ctx context.Context, ride *domain.Ride, driverID string) (driverReply, bool) {
	st := newOfferState(driverID)
	c.mu.Lock()
	c.offers[ride.ID] = st
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.offers, ride.ID)
		c.mu.Unlock()
	}()

	c.notifier.Notify(ctx, driverID, "New ride request",
		fmt.Sprintf("Pickup %s, drop %s, %.1f km", ride.Pickup, ride.Drop, ride.DistanceKm))

	timer := time.NewTimer(c.cfg.OfferTimeout)
	defer timer.Stop()

	select {
	case reply := <-st.replies:
		return reply, true

	case <-timer.C:
		st.mu.Lock()
		if st.resolved {
			// Respond won the race a moment before the timer fired;
			// the committed reply is already in flight.
			st.mu.Unlock()
			return <-st.replies, true
		}
		st.resolved = true
		st.mu.Unlock()
		return driverReply{driverID: driverID, accepted: false}, true

	case <-ctx.Done():
		st.mu.Lock()
		st.resolved = true
		st.mu.Unlock()
		return driverReply{}, false
	}
}

// finalize commits an acceptance. The conditional update in the
// repository is the arbiter: if the ride is no longer pending by the
// time we get here, nothing is written and the driver is told the ride
// is gone.
func (c *DispatchCoordinator) finalize(ctx context.Context, ride *domain.Ride, driverID string, fare, incentive float64, reward domain.RewardBundle) DispatchResult {
	defer c.releaseDriver(driverID)

	if err := c.lifecycle.Accept(ride, driverID); err != nil {
		return DispatchResult{RideID: ride.ID, Err: err}
	}
	ride.Fare = fare
	ride.Incentive = incentive
	ride.Reward = reward

	ok, err := c.rides.Accept(ctx, ride)
	if err != nil {
		return DispatchResult{RideID: ride.ID, Err: err}
	}
	if !ok {
		c.notifier.Notify(ctx, driverID, "Ride unavailable", "The ride was already resolved.")
		return DispatchResult{RideID: ride.ID, Err: ErrAlreadyResolved}
	}

	if err := c.users.UpdateStatus(ctx, driverID, domain.DriverStatusOnRide); err != nil {
		log.Printf("dispatch: status update failed for driver %s: %v", driverID, err)
	}

	c.notifier.Notify(ctx, ride.RiderID, "Driver assigned",
		fmt.Sprintf("Your driver is on the way. Fare %.2f", fare))
	c.notifier.Notify(ctx, driverID, "Ride assigned",
		fmt.Sprintf("Pickup %s. Incentive %.2f", ride.Pickup, incentive))

	log.Printf("dispatch: ride %s assigned to driver %s", ride.ID, driverID)
	return DispatchResult{RideID: ride.ID, DriverID: driverID, Assigned: true}
}

// reject resolves a ride nobody would take.
func (c *DispatchCoordinator) reject(ctx context.Context, ride *domain.Ride) DispatchResult {
	if err := c.lifecycle.Reject(ride); err != nil {
		return DispatchResult{RideID: ride.ID, Err: err}
	}
	if err := c.rides.Update(ctx, ride); err != nil {
		return DispatchResult{RideID: ride.ID, Err: err}
	}

	c.notifier.Notify(ctx, ride.RiderID, "No driver available",
		"We could not find a driver for your ride. Please try again.")

	log.Printf("dispatch: ride %s rejected, no driver available", ride.ID)
	return DispatchResult{RideID: ride.ID, Err: ErrNoDriverAvailable}
}

func (c *DispatchCoordinator) releaseDriver(driverID string) {
	if err := c.locks.ReleaseDriverLock(context.Background(), driverID); err != nil {
		log.Printf("dispatch: driver lock release failed for %s: %v", driverID, err)
	}
}
