package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shoptok/backend/internal/auth/middleware"
	"github.com/shoptok/backend/internal/models"
	"github.com/shoptok/backend/internal/services"
	"go.uber.org/zap"
)

// AuthService defines the interface for auth service operations
type AuthService interface {
	// Method Register creates a new account and returns access and refresh tokens.
	Register(ctx context.Context, req *models.RegisterRequest) (string, string, error)
	// Method Login authenticates a user by email and password.
	Login(ctx context.Context, req *models.LoginRequest) (string, string, error)
	// Method Refresh exchanges a valid refresh token for a new token pair.
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	// Method Profile retrieves the account for a user ID.
	Profile(ctx context.Context, userID int) (*models.User, error)
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterPublicRoutes registers the unauthenticated auth routes
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
}

// RegisterAuthRoutes registers routes that require a valid access token
func (h *AuthHandler) RegisterAuthRoutes(r chi.Router) {
	r.Get("/auth/profile", h.Profile)
}

// tokenResponse carries an issued token pair
type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refreshRequest carries a refresh token in the request body
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /auth/register
// @Summary Register
// @Description Creates a buyer or seller account and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Account fields"
// @Success 201 {object} tokenResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accessToken, refreshToken, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			h.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		h.Logger.Warn("registration failed", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.setAccessCookie(w, accessToken)
	h.RespondJSON(w, http.StatusCreated, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Login handles POST /auth/login
// @Summary Login
// @Description Authenticates by email and password and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} map[string]string "Malformed request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accessToken, refreshToken, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.RespondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.setAccessCookie(w, accessToken)
	h.RespondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Refresh handles POST /auth/refresh
// @Summary Refresh tokens
// @Description Exchanges a valid refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest true "Refresh token"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} map[string]string "Malformed request"
// @Failure 401 {object} map[string]string "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		h.RespondError(w, http.StatusBadRequest, "refresh token required")
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.Logger.Warn("token refresh failed", zap.Error(err))
		h.RespondError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	h.setAccessCookie(w, accessToken)
	h.RespondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Profile handles GET /auth/profile
// @Summary Get profile
// @Description Returns the authenticated user's account
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.authService.Profile(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to load profile", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// setAccessCookie mirrors the access token into a cookie so browser
// clients can authenticate without managing the Authorization header
func (h *AuthHandler) setAccessCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
