// api/middleware/identity.go

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/argus/api/logging"
)

// UsernameHeader carries the authenticated caller identity, stamped by the
// API gateway after it has verified the session token.
const UsernameHeader = "X-Username"

// Identity extracts the caller's username from the gateway header and stores
// it in the request context. Requests without an identity are rejected; the
// authorization decision itself happens in the service layer against the
// role-assignment table.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetHeader(UsernameHeader)
		if username == "" {
			logger.Warn("Request without caller identity",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing caller identity"})
			c.Abort()
			return
		}
		c.Set("username", username)
		c.Next()
	}
}
