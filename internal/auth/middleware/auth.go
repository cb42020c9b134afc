package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shoptok/backend/internal/auth/service"
	"github.com/shoptok/backend/internal/models"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	userRoleKey contextKey = "userRole"
)

// extractToken pulls the bearer token from the Authorization header,
// falling back to the access_token cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	cookie, err := r.Cookie("access_token")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// respondError writes an error response in the API's shared body shape
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// authenticate extracts and validates the access token. On failure it
// writes the 401 response itself and reports ok=false.
func authenticate(tokenGenerator *service.TokenGenerator, w http.ResponseWriter, r *http.Request) (userID int, role models.Role, ok bool) {
	token := extractToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return 0, 0, false
	}

	userID, role, err := tokenGenerator.ValidateAccessToken(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
		return 0, 0, false
	}

	return userID, role, true
}

// withIdentity stores the caller's identity in the request context
func withIdentity(ctx context.Context, userID int, role models.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}

// AuthMiddleware validates the JWT access token and stores the caller's
// userID and role in the request context
func AuthMiddleware(tokenGenerator *service.TokenGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, role, ok := authenticate(tokenGenerator, w, r)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID, role)))
		})
	}
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetUserRole retrieves the user role from context
func GetUserRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(userRoleKey).(models.Role)
	return role, ok
}
