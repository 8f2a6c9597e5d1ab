package middleware

import (
	"net/http"

	"github.com/dlms/dlms-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes applies when no positive limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects request bodies larger than limit bytes. Declared
// lengths are refused up front; chunked bodies fail while binding.
func BodyLimit(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			response.AbortFail(c, http.StatusRequestEntityTooLarge, response.ErrPayloadTooLarge)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
