package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const IngestKeyHeader = "X-Ingest-Key"

// IngestKey rejects requests whose X-Ingest-Key does not match required.
// An empty required key disables the check.
func IngestKey(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if required == "" {
			c.Next()
			return
		}
		key := c.GetHeader(IngestKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(required)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid ingest key",
				},
			})
			return
		}
		c.Next()
	}
}
