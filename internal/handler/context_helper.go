package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/iti-edu/schoolmis-api/internal/middleware"
	"github.com/iti-edu/schoolmis-api/internal/models"
)

// claimsFromContext pulls the authenticated user's claims out of the request
// context. It returns nil on routes reached without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
