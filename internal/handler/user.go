package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userService *service.UserService
	notifier    *service.NotificationService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, notifier *service.NotificationService) *UserHandler {
	return &UserHandler{
		userService: userService,
		notifier:    notifier,
	}
}

// RegisterRequest is the HTTP request body for registering a user.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	IsDriver    bool   `json:"is_driver"`
	VehicleType string `json:"vehicle_type,omitempty"`
	PlateNumber string `json:"plate_number,omitempty"`
}

// UserResponse is the HTTP representation of a user.
type UserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	IsDriver    bool   `json:"is_driver"`
	VehicleType string `json:"vehicle_type,omitempty"`
	PlateNumber string `json:"plate_number,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// NotificationResponse is the HTTP representation of a notification.
type NotificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Mobile:      user.Mobile,
		IsDriver:    user.IsDriver,
		VehicleType: string(user.VehicleType),
		PlateNumber: user.PlateNumber,
		Status:      string(user.Status),
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterRequest{
		Name:        req.Name,
		Email:       req.Email,
		Mobile:      req.Mobile,
		IsDriver:    req.IsDriver,
		VehicleType: req.VehicleType,
		PlateNumber: req.PlateNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUserResponse(user))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}

// GetAll handles GET /v1/users
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i, user := range users {
		resp[i] = toUserResponse(user)
	}

	respondJSON(c, http.StatusOK, resp)
}

// GetNotifications handles GET /v1/users/:id/notifications
func (h *UserHandler) GetNotifications(c *gin.Context) {
	notifications, err := h.notifier.Inbox(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}

	respondJSON(c, http.StatusOK, resp)
}
