package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/service"
)

// DriverHandler handles HTTP requests for driver operations.
type DriverHandler struct {
	registry   *service.LocationRegistry
	dispatcher *service.DispatchCoordinator
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(registry *service.LocationRegistry, dispatcher *service.DispatchCoordinator) *DriverHandler {
	return &DriverHandler{
		registry:   registry,
		dispatcher: dispatcher,
	}
}

// UpdateLocationRequest is the HTTP request body for a location ping.
type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RespondRequest is the HTTP request body for answering an offer.
type RespondRequest struct {
	RideID string `json:"ride_id"`
	Accept bool   `json:"accept"`
}

// LocationResponse is the HTTP representation of a driver position.
type LocationResponse struct {
	DriverID  string  `json:"driver_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UpdatedAt string  `json:"updated_at"`
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.registry.Ping(c.Request.Context(), c.Param("id"), req.Latitude, req.Longitude); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "updated"})
}

// GetLocation handles GET /v1/drivers/:id/location
func (h *DriverHandler) GetLocation(c *gin.Context) {
	loc, err := h.registry.Position(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, LocationResponse{
		DriverID:  loc.DriverID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		UpdatedAt: loc.UpdatedAt.Format(time.RFC3339),
	})
}

// Respond handles POST /v1/drivers/:id/respond
func (h *DriverHandler) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.dispatcher.Respond(c.Request.Context(), req.RideID, c.Param("id"), req.Accept); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "received"})
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	if err := h.registry.GoOffline(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "offline"})
}
