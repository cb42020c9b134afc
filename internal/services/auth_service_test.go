package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shoptok/backend/internal/auth/service"
	"github.com/shoptok/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user      *models.User
	exists    bool
	err       error
	createErr error
	created   *models.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 11
	m.created = user
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil {
		return nil, errors.New("user not found")
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil {
		return nil, errors.New("user not found")
	}
	return m.user, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.exists, m.err
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	userToken    *models.UserToken
	err          error
	saved        *models.UserToken
	updateCalled bool
	deleteCalled bool
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.err != nil {
		return m.err
	}
	m.saved = userToken
	return nil
}

func (m *mockUserTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.userToken == nil {
		return nil, errors.New("user token not found")
	}
	return m.userToken, nil
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	m.updateCalled = true
	return m.err
}

func (m *mockUserTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	m.deleteCalled = true
	return nil
}

func setupAuthService(userRepo *mockUserRepository, tokenRepo *mockUserTokenRepository) (*AuthService, *service.TokenGenerator) {
	tg := service.NewTokenGenerator("test-secret", time.Hour, 7*24*time.Hour)
	return NewAuthService(userRepo, tokenRepo, tg, zap.NewNop()), tg
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		req           *models.RegisterRequest
		exists        bool
		expectedError string
	}{
		{
			name: "buyer registered",
			req:  &models.RegisterRequest{Name: "Mika", Email: "mika@example.com", Password: "secret1", Role: "buyer"},
		},
		{
			name: "seller registered",
			req:  &models.RegisterRequest{Name: "Ren", Email: "ren@example.com", Password: "secret1", Role: "seller"},
		},
		{
			name: "empty role defaults to buyer",
			req:  &models.RegisterRequest{Name: "Yui", Email: "yui@example.com", Password: "secret1"},
		},
		{
			name:          "admin role rejected",
			req:           &models.RegisterRequest{Name: "Eve", Email: "eve@example.com", Password: "secret1", Role: "admin"},
			expectedError: "role must be either buyer or seller",
		},
		{
			name:          "missing name",
			req:           &models.RegisterRequest{Email: "a@example.com", Password: "secret1"},
			expectedError: "name is required",
		},
		{
			name:          "invalid email",
			req:           &models.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret1"},
			expectedError: "invalid email",
		},
		{
			name:          "short password",
			req:           &models.RegisterRequest{Name: "A", Email: "a@example.com", Password: "12345"},
			expectedError: "at least 6 characters",
		},
		{
			name:          "email taken",
			req:           &models.RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"},
			exists:        true,
			expectedError: ErrEmailTaken.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := &mockUserRepository{exists: tt.exists}
			tokenRepo := &mockUserTokenRepository{}
			svc, tg := setupAuthService(userRepo, tokenRepo)

			access, refresh, err := svc.Register(context.Background(), tt.req)

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, access)
			assert.NotEmpty(t, refresh)
			require.NotNil(t, tokenRepo.saved)
			assert.Equal(t, refresh, tokenRepo.saved.Token)

			// Password is stored hashed
			require.NotNil(t, userRepo.created)
			assert.NotEqual(t, tt.req.Password, userRepo.created.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword(
				[]byte(userRepo.created.PasswordHash), []byte(tt.req.Password)))

			// Access token carries the user's identity
			userID, _, err := tg.ValidateAccessToken(access)
			require.NoError(t, err)
			assert.Equal(t, 11, userID)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		ID:           5,
		Email:        "mika@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleSeller,
	}

	t.Run("success", func(t *testing.T) {
		svc, _ := setupAuthService(&mockUserRepository{user: user}, &mockUserTokenRepository{})

		access, refresh, err := svc.Login(context.Background(), &models.LoginRequest{
			Email:    "mika@example.com",
			Password: "secret1",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _ := setupAuthService(&mockUserRepository{user: user}, &mockUserTokenRepository{})

		_, _, err := svc.Login(context.Background(), &models.LoginRequest{
			Email:    "mika@example.com",
			Password: "wrong",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _ := setupAuthService(&mockUserRepository{}, &mockUserTokenRepository{})

		_, _, err := svc.Login(context.Background(), &models.LoginRequest{
			Email:    "ghost@example.com",
			Password: "secret1",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	user := &models.User{ID: 5, Role: models.RoleSeller}

	t.Run("success rotates stored token", func(t *testing.T) {
		userRepo := &mockUserRepository{user: user}
		tokenRepo := &mockUserTokenRepository{}
		svc, tg := setupAuthService(userRepo, tokenRepo)

		_, refresh, err := tg.GenerateTokens(5, models.RoleSeller)
		require.NoError(t, err)
		tokenRepo.userToken = &models.UserToken{ID: 1, UserID: 5, Token: refresh}

		access, newRefresh, err := svc.Refresh(context.Background(), refresh)

		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, newRefresh)
		assert.True(t, tokenRepo.updateCalled)
	})

	t.Run("invalid token is dropped from storage", func(t *testing.T) {
		tokenRepo := &mockUserTokenRepository{}
		svc, _ := setupAuthService(&mockUserRepository{user: user}, tokenRepo)

		_, _, err := svc.Refresh(context.Background(), "garbage")

		assert.ErrorContains(t, err, "invalid or expired refresh token")
		assert.True(t, tokenRepo.deleteCalled)
	})

	t.Run("unknown token", func(t *testing.T) {
		tokenRepo := &mockUserTokenRepository{}
		svc, tg := setupAuthService(&mockUserRepository{user: user}, tokenRepo)

		_, refresh, err := tg.GenerateTokens(5, models.RoleSeller)
		require.NoError(t, err)

		_, _, err = svc.Refresh(context.Background(), refresh)

		assert.Error(t, err)
	})
}
