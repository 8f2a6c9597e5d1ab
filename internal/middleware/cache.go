package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControl marks responses cacheable for maxAge. Authenticated
// responses must use private so shared caches do not store them.
func CacheControl(maxAge time.Duration, private bool) gin.HandlerFunc {
	scope := "public"
	if private {
		scope = "private"
	}
	value := fmt.Sprintf("%s, max-age=%d", scope, int(maxAge.Seconds()))

	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
