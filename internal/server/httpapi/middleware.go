package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const ownerIDKey = "ownerID"

// authMiddleware verifies the Bearer access token and upserts the owner row
// from its claims so downstream handlers and the reminder engine always see
// current contact data.
func (s *HTTPServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.ErrorUnauthorized.Error()})
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, prefix), s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.ErrorUnauthorized.Error()})
			return
		}

		if err := s.documents.EnsureOwner(c.Request.Context(), claims.UserID, claims.Email, claims.Name); err != nil {
			s.logger.Error(c.Request.Context(), "owner upsert failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": common.ErrorInternal.Error()})
			return
		}

		c.Set(ownerIDKey, claims.UserID)
		c.Next()
	}
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerIDKey)
}
