package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// principalKey is where RequireIdentity stores the authenticated user id.
const principalKey = "principal_id"

// RequireIdentity trusts the upstream identity provider: the gateway has
// already authenticated the caller and forwards the user id in X-User-ID.
// The core never consults ambient session state; handlers read the principal
// from the context and pass it into the service explicitly.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "missing identity"})
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "invalid identity"})
			return
		}
		c.Set(principalKey, id)
		c.Next()
	}
}

// Principal returns the authenticated user id set by RequireIdentity.
func Principal(c *gin.Context) int64 {
	return c.GetInt64(principalKey)
}
