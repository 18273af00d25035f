package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
	"github.com/iti-edu/schoolmis-api/internal/service"
)

func jwtTestRouter(t *testing.T) (*gin.Engine, *service.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "middleware-test-secret", Issuer: "schoolmis-test"})
	r := gin.New()
	r.GET("/protected", JWT(tokens), func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UserID})
	})
	return r, tokens
}

func jwtTestUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Email: "student@example.edu",
		Roles: pq.StringArray{string(models.RoleStudent)},
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	r, _ := jwtTestRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJWTMiddlewareWrongScheme(t *testing.T) {
	r, _ := jwtTestRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJWTMiddlewareGarbageToken(t *testing.T) {
	r, _ := jwtTestRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareAccessTokenPasses(t *testing.T) {
	r, tokens := jwtTestRouter(t)
	access, _, err := tokens.IssuePair(jwtTestUser())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "user-1")
}

func TestJWTMiddlewareRejectsRefreshToken(t *testing.T) {
	r, tokens := jwtTestRouter(t)
	refresh, err := tokens.Issue(jwtTestUser(), time.Hour, models.TokenUseRefresh)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
	r, tokens := jwtTestRouter(t)
	expired, err := tokens.Issue(jwtTestUser(), -time.Minute, models.TokenUseAccess)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
