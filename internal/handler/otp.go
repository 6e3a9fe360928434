package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/service"
)

// OTPHandler handles HTTP requests for one-time codes.
type OTPHandler struct {
	otpService *service.OTPService
}

// NewOTPHandler creates a new OTPHandler.
func NewOTPHandler(otpService *service.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// SendOTPRequest is the HTTP request body for issuing a code.
type SendOTPRequest struct {
	UserID string `json:"user_id"`
}

// VerifyOTPRequest is the HTTP request body for verifying a code.
type VerifyOTPRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// SendOTP handles POST /v1/otp/send
func (h *OTPHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if _, err := h.otpService.Issue(c.Request.Context(), req.UserID); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "sent"})
}

// VerifyOTP handles POST /v1/otp/verify
func (h *OTPHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), req.UserID, req.Code); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "verified"})
}
