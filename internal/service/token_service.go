package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

// TokenConfig defines signing parameters for issued tokens.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService issues and verifies stateless bearer tokens. Tokens are
// self-describing HS256 JWTs: verification needs no store lookup, validity is
// purely a function of signature and expiry.
type TokenService struct {
	config TokenConfig
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	if config.AccessTTL <= 0 {
		config.AccessTTL = 24 * time.Hour
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{config: config}
}

// AccessTTL returns the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.config.AccessTTL
}

// IssuePair returns an access and refresh token for the same identity with
// their respective expiries.
func (s *TokenService) IssuePair(user *models.User) (access string, refresh string, err error) {
	access, err = s.Issue(user, s.config.AccessTTL, models.TokenUseAccess)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.Issue(user, s.config.RefreshTTL, models.TokenUseRefresh)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Issue produces a signed token embedding the identity and expiry.
func (s *TokenService) Issue(user *models.User, ttl time.Duration, use models.TokenUse) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  append([]string(nil), user.Roles...),
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. The signature is
// checked before expiry so malformed input never learns whether it carried a
// live timestamp. Expired-but-authentic tokens report TOKEN_EXPIRED, anything
// else TOKEN_INVALID.
func (s *TokenService) Verify(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrTokenExpired.Code, appErrors.ErrTokenExpired.Status, appErrors.ErrTokenExpired.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Status, appErrors.ErrTokenInvalid.Message)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "invalid token claims")
	}

	return claims, nil
}

// VerifyUse validates the token and additionally checks its declared use,
// preventing refresh tokens from being replayed as access tokens.
func (s *TokenService) VerifyUse(tokenString string, use models.TokenUse) (*models.JWTClaims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Use != use {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "token not valid for this purpose")
	}
	return claims, nil
}
