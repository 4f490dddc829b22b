package response

import (
	"net/http"

	"anoa.com/moodquest/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ContextUserID is the gin context key the auth middleware stores the subject under.
const ContextUserID = "user_id"

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := c.GetString(ContextUserID)
	if userIDStr == "" {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log server-side failures; client errors are the caller's business.
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Int("status", code).Msg("request failed")
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
