package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/websurvey-backend/internal/middleware"
	"github.com/stemsi/websurvey-backend/internal/response"
	"github.com/stemsi/websurvey-backend/internal/service"
)

// statusFor maps a service result to an HTTP status. okStatus is used for
// successful results.
func statusFor(res service.Result, okStatus int) int {
	if res.Success {
		return okStatus
	}
	switch res.Reason {
	case service.ReasonNotFound:
		return http.StatusNotFound
	case service.ReasonFault:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeResult sends a service result in the standard envelope.
func writeResult(c *gin.Context, res service.Result, okStatus int) {
	response.Outcome(c, statusFor(res, okStatus), res.Success, res.Data, res.Message, res.Error)
}

// callerID returns the authenticated user id, writing a 401 if absent.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// paramID parses a UUID path parameter, writing a 400 if malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
