package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepnova/mocktest-backend/internal/response"
	"github.com/prepnova/mocktest-backend/internal/service"
)

// CheckSingleDeviceSession validates the JWT's JTI against the active
// session in Redis. A mismatch means the candidate logged in elsewhere or
// an admin reset the seat, so the request is rejected.
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only candidate sessions are single-device.
		if claims.TokenType != service.TokenTypeCandidate {
			c.Next()
			return
		}

		candidateID, err := claims.UserID()
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		if err := authService.ValidateCandidateSession(c.Request.Context(), candidateID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
