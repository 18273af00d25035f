package service

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

func testTokenService(accessTTL time.Duration) *TokenService {
	return NewTokenService(TokenConfig{
		Secret:     "test-secret",
		Issuer:     "schoolmis-test",
		AccessTTL:  accessTTL,
		RefreshTTL: 2 * accessTTL,
	})
}

func testTokenUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Email: "student@example.com",
		Roles: pq.StringArray{string(models.RoleStudent)},
	}
}

func TestTokenServiceIssuePairRoundTrip(t *testing.T) {
	svc := testTokenService(time.Hour)

	access, refresh, err := svc.IssuePair(testTokenUser())
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.VerifyUse(access, models.TokenUseAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.Equal(t, []string{"STUDENT"}, claims.Roles)
	assert.Equal(t, "schoolmis-test", claims.Issuer)

	_, err = svc.VerifyUse(refresh, models.TokenUseRefresh)
	require.NoError(t, err)
}

func TestTokenServiceRejectsWrongUse(t *testing.T) {
	svc := testTokenService(time.Hour)

	_, refresh, err := svc.IssuePair(testTokenUser())
	require.NoError(t, err)

	_, err = svc.VerifyUse(refresh, models.TokenUseAccess)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErr.Code)
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	svc := testTokenService(time.Hour)
	other := NewTokenService(TokenConfig{Secret: "different-secret", Issuer: "schoolmis-test"})

	access, _, err := other.IssuePair(testTokenUser())
	require.NoError(t, err)

	_, err = svc.Verify(access)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErr.Code)
}

func TestTokenServiceExpiredToken(t *testing.T) {
	svc := testTokenService(time.Hour)

	token, err := svc.Issue(testTokenUser(), -time.Minute, models.TokenUseAccess)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErr.Code)
}

func TestTokenServiceGarbageInput(t *testing.T) {
	svc := testTokenService(time.Hour)

	_, err := svc.Verify("not-a-token")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErr.Code)
}
