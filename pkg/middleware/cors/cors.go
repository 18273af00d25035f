// Package cors implements origin allow-listing for browser clients.
package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// New builds the CORS middleware. An empty origin list reflects any caller;
// otherwise only listed origins receive the allow header. Preflight requests
// are answered directly with 204.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[normalizeOrigin(origin)] = struct{}{}
	}
	reflectAny := len(allowed) == 0

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := c.GetHeader("Origin")

		switch {
		case origin == "":
			if reflectAny {
				header.Set("Access-Control-Allow-Origin", "*")
			}
		default:
			if _, ok := allowed[normalizeOrigin(origin)]; ok || reflectAny {
				header.Set("Access-Control-Allow-Origin", origin)
			}
		}

		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Request-ID")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Trailing slashes in ALLOWED_ORIGINS are a recurring misconfiguration, so
// both sides of the comparison are normalized.
func normalizeOrigin(origin string) string {
	return strings.TrimRight(origin, "/")
}
