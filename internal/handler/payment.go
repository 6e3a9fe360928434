package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	payments *service.PaymentReconciler
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *service.PaymentReconciler) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrderRequest is the HTTP request body for opening a payment order.
type CreateOrderRequest struct {
	RideID string `json:"ride_id"`
}

// ConfirmPaymentRequest is the HTTP request body for the gateway confirmation.
type ConfirmPaymentRequest struct {
	RideID           string `json:"ride_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID               string `json:"id"`
	RideID           string `json:"ride_id"`
	UserID           string `json:"user_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	Paid             bool   `json:"paid"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		RideID:           p.RideID,
		UserID:           p.UserID,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		Paid:             p.Paid,
	}
}

// CreateOrder handles POST /v1/payments/order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.payments.CreateOrder(c.Request.Context(), req.RideID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// ConfirmPayment handles POST /v1/payments/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.payments.Confirm(c.Request.Context(), req.RideID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
