package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth gates the ingestion endpoints on a shared-secret X-API-Key
// header. An empty configured key rejects everything, so an unconfigured
// deployment cannot be ingested into by accident.
func APIKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-API-Key")
		if key == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(header), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or missing API key"})
			return
		}
		c.Next()
	}
}
