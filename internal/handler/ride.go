package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	RiderID     string  `json:"rider_id"`
	Pickup      string  `json:"pickup"`
	Drop        string  `json:"drop"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DistanceKm  float64 `json:"distance_km"`
	VehicleType string  `json:"vehicle_type"`
}

// RateRideRequest is the HTTP request body for rating a ride.
type RateRideRequest struct {
	RiderID  string `json:"rider_id"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// CompleteRideRequest is the HTTP request body for completing a ride.
type CompleteRideRequest struct {
	DriverID string `json:"driver_id"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID          string              `json:"id"`
	RiderID     string              `json:"rider_id"`
	DriverID    string              `json:"driver_id,omitempty"`
	Pickup      string              `json:"pickup"`
	Drop        string              `json:"drop"`
	PickupLat   float64             `json:"pickup_lat"`
	PickupLng   float64             `json:"pickup_lng"`
	DistanceKm  float64             `json:"distance_km"`
	VehicleType string              `json:"vehicle_type"`
	Fare        float64             `json:"fare"`
	Incentive   float64             `json:"incentive"`
	Reward      domain.RewardBundle `json:"reward"`
	Status      string              `json:"status"`
	Completed   bool                `json:"completed"`
	Paid        bool                `json:"paid"`
	Rating      int                 `json:"rating,omitempty"`
	Feedback    string              `json:"feedback,omitempty"`
	CreatedAt   string              `json:"created_at"`
	CompletedAt string              `json:"completed_at,omitempty"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:          ride.ID,
		RiderID:     ride.RiderID,
		DriverID:    ride.DriverID,
		Pickup:      ride.Pickup,
		Drop:        ride.Drop,
		PickupLat:   ride.PickupLat,
		PickupLng:   ride.PickupLng,
		DistanceKm:  ride.DistanceKm,
		VehicleType: string(ride.VehicleType),
		Fare:        ride.Fare,
		Incentive:   ride.Incentive,
		Reward:      ride.Reward,
		Status:      string(ride.Status),
		Completed:   ride.Completed,
		Paid:        ride.Paid,
		Rating:      ride.Rating,
		Feedback:    ride.Feedback,
		CreatedAt:   ride.CreatedAt.Format(time.RFC3339),
	}
	if !ride.CompletedAt.IsZero() {
		resp.CompletedAt = ride.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Request(c.Request.Context(), service.RideRequest{
		RiderID:     req.RiderID,
		Pickup:      req.Pickup,
		Drop:        req.Drop,
		PickupLat:   req.PickupLat,
		PickupLng:   req.PickupLng,
		DistanceKm:  req.DistanceKm,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	var req CompleteRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Complete(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// RateRide handles POST /v1/rides/:id/rating
func (h *RideHandler) RateRide(c *gin.Context) {
	var req RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Rate(c.Request.Context(), c.Param("id"), req.RiderID, req.Rating, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// QuoteFare handles GET /v1/fares/quote
func (h *RideHandler) QuoteFare(c *gin.Context) {
	var query struct {
		VehicleType string  `form:"vehicle_type"`
		DistanceKm  float64 `form:"distance_km"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters"})
		return
	}

	quote, err := h.rideService.Quote(c.Request.Context(), query.VehicleType, query.DistanceKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, quote)
}
