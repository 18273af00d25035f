package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	touched []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) addUser(email, password string, enabled bool, roles ...models.UserRole) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	roleStrings := make(pq.StringArray, 0, len(roles))
	for _, r := range roles {
		roleStrings = append(roleStrings, string(r))
	}
	user := &models.User{
		ID:           "user-" + email,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Roles:        roleStrings,
		Enabled:      enabled,
	}
	m.users[user.ID] = user
	return user
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockUserRepo) Touch(ctx context.Context, id string, ts time.Time) error {
	m.touched = append(m.touched, id)
	return nil
}

func newAuthService(repo *mockUserRepo) *AuthService {
	tokens := NewTokenService(TokenConfig{Secret: "auth-test-secret", Issuer: "schoolmis-test", AccessTTL: time.Hour, RefreshTTL: 2 * time.Hour})
	return NewAuthService(repo, tokens, validator.New(), zap.NewNop())
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)

	profile, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "New.Student@Example.com",
		Password:  "supersecret",
		FirstName: "New",
		LastName:  "Student",
		Role:      "student",
	})
	require.NoError(t, err)
	assert.Equal(t, "new.student@example.com", profile.Email)
	assert.Equal(t, []string{"STUDENT"}, profile.Roles)
	assert.True(t, profile.Enabled)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.addUser("taken@example.com", "password1", true, models.RoleStudent)
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "taken@example.com",
		Password:  "supersecret",
		FirstName: "Dup",
		LastName:  "User",
		Role:      "STUDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterInvalidRole(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "who@example.com",
		Password:  "supersecret",
		FirstName: "Who",
		LastName:  "Ever",
		Role:      "SUPERUSER",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockUserRepo()
	user := repo.addUser("login@example.com", "correct-horse", true, models.RoleTeacher)
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "Login@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, time.Hour.Milliseconds(), res.ExpiresIn)
	assert.Equal(t, user.Email, res.User.Email)
	assert.Contains(t, repo.touched, user.ID)
}

func TestAuthServiceLoginFailuresIndistinguishable(t *testing.T) {
	repo := newMockUserRepo()
	repo.addUser("known@example.com", "right-password", true, models.RoleStudent)
	repo.addUser("disabled@example.com", "right-password", false, models.RoleStudent)
	svc := newAuthService(repo)

	cases := []models.LoginRequest{
		{Email: "ghost@example.com", Password: "whatever1"},
		{Email: "known@example.com", Password: "wrong-password"},
		{Email: "disabled@example.com", Password: "right-password"},
	}

	messages := make([]string, 0, len(cases))
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
		messages = append(messages, appErr.Message)
	}

	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[1], messages[2])
}

func TestAuthServiceRefresh(t *testing.T) {
	repo := newMockUserRepo()
	user := repo.addUser("refresh@example.com", "password1", true, models.RoleStudent)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "password1"})
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, user.Email, res.User.Email)
}

func TestAuthServiceRefreshRejectsAccessToken(t *testing.T) {
	repo := newMockUserRepo()
	user := repo.addUser("replay@example.com", "password1", true, models.RoleStudent)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.AccessToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockUserRepo()
	user := repo.addUser("rotate@example.com", "old-password", true, models.RoleStudent)
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "old-password",
		NewPassword: "new-password-1",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "new-password-1"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "not-the-password",
		NewPassword: "another-pass-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
