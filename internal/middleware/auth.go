package middleware

import (
	"net/http"
	"strings"

	"anoa.com/moodquest/internal/modules/user/dto"
	userService "anoa.com/moodquest/internal/modules/user/service"
	"anoa.com/moodquest/pkg/apperror"
	"anoa.com/moodquest/pkg/response"
	"github.com/gin-gonic/gin"
)

// ContextIdentity is the gin context key holding the *dto.Identity of the caller.
const ContextIdentity = "identity"

type AuthMiddleware struct {
	auth userService.AuthService
}

func NewAuthMiddleware(auth userService.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Browsers cannot set headers on websocket upgrades.
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		identity, err := m.auth.CurrentIdentity(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(apperror.MapErrorToStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.Set(response.ContextUserID, identity.UserID.String())
		c.Set(ContextIdentity, identity)
		c.Next()
	}
}

// Identity returns the caller resolved by RequireAuth.
func Identity(c *gin.Context) (*dto.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*dto.Identity)
	return identity, ok
}
