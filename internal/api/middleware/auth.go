// Package middleware provides HTTP middleware for the read gateway,
// including API key authentication and request logging.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/zonepress/internal/api/models"
)

// APIKeyHeader carries the shared secret.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey enforces a shared-secret API key. An empty expected key
// disables the check.
func RequireAPIKey(expected string) gin.HandlerFunc {
	want := []byte(expected)
	return func(c *gin.Context) {
		if expected == "" || subtle.ConstantTimeCompare([]byte(c.GetHeader(APIKeyHeader)), want) == 1 {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
	}
}
