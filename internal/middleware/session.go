package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/response"
)

// LoginSessionValidator confirms a token is the user's current login.
type LoginSessionValidator interface {
	ValidateLoginSession(ctx context.Context, userID uuid.UUID, jti string) error
}

// CheckSingleDeviceSession validates the JWT's JTI against the current login in Redis.
// A respondent who logs in elsewhere invalidates the older token.
func CheckSingleDeviceSession(sessions LoginSessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only enforce for respondent tokens.
		if claims.Role != model.RoleRespondent {
			c.Next()
			return
		}

		if err := sessions.ValidateLoginSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
