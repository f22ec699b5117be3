package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "auth.user_id"
	ctxRole   = "auth.role"
)

// UnauthorizedKey is the message key written for a missing or invalid token
const UnauthorizedKey = "common.unauthorized"

// RejectFunc writes the error body for a refused request
type RejectFunc func(c *gin.Context, status int, key string)

func defaultReject(c *gin.Context, status int, key string) {
	c.JSON(status, gin.H{"success": false, "message": key})
}

// Middleware rejects requests without a valid bearer token and stores the
// caller identity in the gin context. A nil reject writes the bare key.
func Middleware(issuer *TokenIssuer, reject RejectFunc) gin.HandlerFunc {
	if reject == nil {
		reject = defaultReject
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			reject(c, http.StatusUnauthorized, UnauthorizedKey)
			c.Abort()
			return
		}

		claims, err := issuer.Parse(raw)
		if err != nil {
			reject(c, http.StatusUnauthorized, UnauthorizedKey)
			c.Abort()
			return
		}

		userID, _ := claims.UserID()
		c.Set(ctxUserID, userID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated caller, if any
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Role returns the authenticated caller's role
func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}
