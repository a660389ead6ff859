package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/websurvey-backend/internal/middleware"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/response"
	"github.com/stemsi/websurvey-backend/internal/service"
	"github.com/stemsi/websurvey-backend/internal/validator"
)

// Authenticator issues and revokes logins.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT. A respondent's previous
// token stops working.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
