package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
)

func rbacTestRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	})
	r.GET("/students/:id", RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func rbacGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Roles: []string{string(models.RoleAdmin)}}
	r := rbacTestRouter(claims, string(models.RoleAdmin))

	require.Equal(t, http.StatusOK, rbacGet(r, "/students/s1").Code)
}

func TestRBACAllowsAnyOfMultipleRoles(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Roles: []string{string(models.RoleStudent), string(models.RoleTeacher)}}
	r := rbacTestRouter(claims, string(models.RoleAdmin), string(models.RoleTeacher))

	require.Equal(t, http.StatusOK, rbacGet(r, "/students/s1").Code)
}

func TestRBACForbidsUnlistedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Roles: []string{string(models.RoleStudent)}}
	r := rbacTestRouter(claims, string(models.RoleAdmin))

	require.Equal(t, http.StatusForbidden, rbacGet(r, "/students/s1").Code)
}

func TestRBACSelfMatchesPathParam(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Roles: []string{string(models.RoleStudent)}}
	r := rbacTestRouter(claims, string(models.RoleAdmin), "SELF")

	require.Equal(t, http.StatusOK, rbacGet(r, "/students/u1").Code)
	require.Equal(t, http.StatusForbidden, rbacGet(r, "/students/u2").Code)
}

func TestRBACMissingClaims(t *testing.T) {
	r := rbacTestRouter(nil, string(models.RoleAdmin))

	require.Equal(t, http.StatusUnauthorized, rbacGet(r, "/students/s1").Code)
}
