package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shoptok/backend/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// accessClaims is the access token payload: who the caller is and what
// role they hold
type accessClaims struct {
	UserID    int         `json:"user_id"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"type"`
	jwt.RegisteredClaims
}

// refreshClaims carries no identity. A refresh token is only usable
// together with its stored row, which maps it back to the user.
type refreshClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenGenerator issues and validates the HS256 token pair
type TokenGenerator struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry, refreshExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// GenerateTokens issues an access and a refresh token. The access token
// carries the user ID and role; the refresh token does not.
func (tg *TokenGenerator) GenerateTokens(userID int, role models.Role) (string, string, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	accessToken, err := access.SignedString([]byte(tg.secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.refreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	refreshToken, err := refresh.SignedString([]byte(tg.secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// keyFunc rejects any signing method other than HMAC before handing
// back the shared secret
func (tg *TokenGenerator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(tg.secret), nil
}

// ValidateAccessToken validates an access token and returns the caller
// identity it carries
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (int, models.Role, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, tg.keyFunc)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return 0, 0, fmt.Errorf("token is invalid")
	}

	if claims.TokenType != tokenTypeAccess {
		return 0, 0, fmt.Errorf("token is not an access token")
	}
	// Zero values mean the claim was absent; no valid account has
	// user ID 0, and roles start at 1
	if claims.UserID == 0 {
		return 0, 0, fmt.Errorf("user_id not found in token")
	}
	if claims.Role == 0 {
		return 0, 0, fmt.Errorf("role not found in token")
	}

	return claims.UserID, claims.Role, nil
}

// ValidateRefreshToken checks the signature, expiry and type of a
// refresh token
func (tg *TokenGenerator) ValidateRefreshToken(tokenString string) error {
	var claims refreshClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, tg.keyFunc)
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("token is invalid")
	}

	if claims.TokenType != tokenTypeRefresh {
		return fmt.Errorf("token is not a refresh token")
	}
	return nil
}
