package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	bearerPrefix  = "Bearer "
	merchantIDKey = "merchantID"
)

// TokenValidator validates a bearer token and returns the merchant ID it
// was issued for.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// AuthMiddleware returns middleware that authenticates requests via the
// Authorization header and stores the merchant identity in the context.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "missing or invalid bearer token",
			})
			return
		}

		merchantID, err := validator.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(merchantIDKey, merchantID)
		c.Next()
	}
}

// MerchantID returns the authenticated merchant ID stored by AuthMiddleware.
func MerchantID(c *gin.Context) string {
	return c.GetString(merchantIDKey)
}
