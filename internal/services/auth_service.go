package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shoptok/backend/internal/auth/service"
	"github.com/shoptok/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Auth service errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email is already registered")
)

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, userID int) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// UserTokenRepository defines the interface for refresh token storage
type UserTokenRepository interface {
	Create(ctx context.Context, userToken *models.UserToken) error
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	DeleteByToken(ctx context.Context, token string) error
}

// AuthService handles registration, login and token refresh
type AuthService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator *service.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	tokenGenerator *service.TokenGenerator,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// Register creates a new account with role buyer or seller and returns
// access and refresh tokens
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (string, string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", "", fmt.Errorf("name is required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRegex.MatchString(email) {
		return "", "", fmt.Errorf("invalid email address")
	}

	if len(req.Password) < 6 {
		return "", "", fmt.Errorf("password must be at least 6 characters")
	}

	if req.Role != "" && req.Role != "buyer" && req.Role != "seller" {
		return "", "", fmt.Errorf("role must be either buyer or seller")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", "", err
	}
	if exists {
		return "", "", ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.ParseRole(req.Role),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", "", err
	}

	s.logger.Info("user registered", zap.Int("userId", user.ID), zap.String("role", user.Role.String()))

	return s.generateAndSaveTokens(ctx, user.ID, user.Role)
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return "", "", fmt.Errorf("email cannot be empty")
	}
	if req.Password == "" {
		return "", "", fmt.Errorf("password cannot be empty")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	return s.generateAndSaveTokens(ctx, user.ID, user.Role)
}

// Refresh exchanges a valid refresh token for a new token pair,
// replacing the stored refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)

	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		// Drop the stored token if it exists; delete is a no-op otherwise
		s.userTokenRepo.DeleteByToken(ctx, refreshToken)
		return "", "", fmt.Errorf("invalid or expired refresh token")
	}

	userToken, err := s.userTokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to get user token by refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if err != nil {
		return "", "", err
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return "", "", err
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, user.ID); err != nil {
		return "", "", err
	}

	return accessToken, newRefreshToken, nil
}

// Profile retrieves the account for a user ID
func (s *AuthService) Profile(ctx context.Context, userID int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// generateAndSaveTokens issues a token pair and stores the refresh token
func (s *AuthService) generateAndSaveTokens(ctx context.Context, userID int, role models.Role) (string, string, error) {
	accessToken, refreshToken, err := s.tokenGenerator.GenerateTokens(userID, role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.Create(ctx, &models.UserToken{UserID: userID, Token: refreshToken}); err != nil {
		return "", "", fmt.Errorf("failed to save refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}
