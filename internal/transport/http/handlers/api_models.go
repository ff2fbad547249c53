package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/oakmund/admin-iam/internal/transport/http/middleware"
)

// ErrorResponse is the generic error body returned by every handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// LoginRequest carries the credentials plus optional client facts collected
// by the frontend.
type LoginRequest struct {
	TenantID    string `json:"tenant_id"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Location    string `json:"location"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	DeviceID    string `json:"device_id"`
	DeviceType  string `json:"device_type"`
	DeviceModel string `json:"device_model"`
}

// LoginResponse returns the freshly issued token pair.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LogoutRequest carries the tokens to revoke.
type LogoutRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LogoutResponse reports whether any token was actually blacklisted.
type LogoutResponse struct {
	Revoked bool `json:"revoked"`
}

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest replaces the caller's credential.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// MessageResponse is a minimal confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}
