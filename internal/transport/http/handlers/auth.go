package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/infra/telemetry"
	"github.com/oakmund/admin-iam/internal/usecase"
)

// AuthHandler exposes the authentication flow over HTTP.
type AuthHandler struct {
	auth      *usecase.AuthService
	accessTTL time.Duration
	metrics   *telemetry.Provider
	logger    *zap.Logger
}

// NewAuthHandler constructs the handler. metrics may be nil.
func NewAuthHandler(auth *usecase.AuthService, accessTTL time.Duration, metrics *telemetry.Provider, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthHandler{
		auth:      auth,
		accessTTL: accessTTL,
		metrics:   metrics,
		logger:    log,
	}
}

// Login godoc
// @Summary Authenticate a user
// @Description Verifies credentials and issues an access and refresh token pair. Repeated failures lock the account temporarily.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request payload"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 423 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse(c, "username and password are required"))
		return
	}

	input := usecase.LoginInput{
		TenantID: req.TenantID,
		Username: req.Username,
		Password: req.Password,
		Client: domain.ClientContext{
			IP:          c.ClientIP(),
			Location:    req.Location,
			Browser:     req.Browser,
			OS:          req.OS,
			UserAgent:   c.Request.UserAgent(),
			DeviceID:    req.DeviceID,
			DeviceType:  req.DeviceType,
			DeviceModel: req.DeviceModel,
		},
	}

	pair, err := h.auth.Authenticate(c.Request.Context(), input)
	if err != nil {
		h.metrics.ObserveLogin("failure")
		h.respondAuthError(c, err)
		return
	}

	h.metrics.ObserveLogin("success")
	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.accessTTL.Seconds()),
	})
}

// Logout godoc
// @Summary Revoke the current tokens
// @Description Blacklists the supplied access and refresh tokens until they expire on their own.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Logout request payload"
// @Success 200 {object} LogoutResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse(c, "invalid request body"))
		return
	}

	revoked, err := h.auth.Logout(c.Request.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, LogoutResponse{Revoked: revoked})
}

// Refresh godoc
// @Summary Refresh an access token
// @Description Issues a new token pair in exchange for a valid, non-blacklisted refresh token.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh request payload"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse(c, "refresh_token is required"))
		return
	}

	pair, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.metrics.ObserveRefresh()
	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.accessTTL.Seconds()),
	})
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Description Verifies the current password, validates the replacement against the password policy and stores the new credential. The user ID comes from the verified access token, never from the request body.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Password change payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/v1/auth/password/change [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, newErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse(c, "current_password and new_password are required"))
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	var (
		lockedErr *usecase.AccountLockedError
		weakErr   *usecase.WeakPasswordError
	)

	switch {
	case errors.As(err, &lockedErr):
		seconds := int(lockedErr.RetryAfter.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.JSON(http.StatusLocked, newErrorResponse(c, "account temporarily locked"))
	case errors.Is(err, usecase.ErrAccountLocked):
		c.JSON(http.StatusLocked, newErrorResponse(c, "account temporarily locked"))
	case errors.Is(err, usecase.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, newErrorResponse(c, "account disabled"))
	case errors.Is(err, usecase.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, newErrorResponse(c, "invalid credentials"))
	case errors.As(err, &weakErr):
		c.JSON(http.StatusBadRequest, newErrorResponse(c, weakErr.Reason))
	case errors.Is(err, usecase.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, newErrorResponse(c, "password does not meet the password policy"))
	case errors.Is(err, usecase.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, newErrorResponse(c, "invalid token"))
	default:
		h.logger.Error("auth handler failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, newErrorResponse(c, "internal server error"))
	}
}

func authenticatedUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
