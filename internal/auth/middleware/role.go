package middleware

import (
	"net/http"

	"github.com/shoptok/backend/internal/auth/service"
	"github.com/shoptok/backend/internal/models"
)

// RoleMiddleware authenticates the caller like AuthMiddleware and then
// requires their role to be at least requiredRole. Roles are ordered
// buyer < seller < admin, so an admin passes every gate.
func RoleMiddleware(tokenGenerator *service.TokenGenerator, requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, role, ok := authenticate(tokenGenerator, w, r)
			if !ok {
				return
			}

			if role < requiredRole {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID, role)))
		})
	}
}
