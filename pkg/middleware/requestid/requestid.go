// Package requestid correlates log lines and client reports through a
// per-request identifier.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerKey  = "X-Request-ID"
	contextKey = "request_id"
)

// Middleware tags the request with a correlation ID. A caller-supplied
// X-Request-ID header is echoed back as-is; otherwise a fresh UUID is issued.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerKey)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(headerKey, id)

		c.Next()
	}
}

// Value reads the correlation ID back out of the Gin context. It returns the
// empty string when the middleware did not run.
func Value(c *gin.Context) string {
	value, exists := c.Get(contextKey)
	if !exists {
		return ""
	}
	id, _ := value.(string)
	return id
}
