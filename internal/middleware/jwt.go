package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
	"github.com/iti-edu/schoolmis-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type accessTokenVerifier interface {
	VerifyUse(tokenString string, use models.TokenUse) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token. An absent or
// malformed Authorization header is a request-shape fault; only a present but
// unverifiable token yields an authentication failure.
func JWT(tokens accessTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "authorization header must use the Bearer scheme"))
			c.Abort()
			return
		}

		claims, err := tokens.VerifyUse(parts[1], models.TokenUseAccess)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentClaims extracts the authenticated claims from the gin context.
func CurrentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
