package models

// Role is an ordered privilege level
type Role int

// Role constants, ordered so that middleware can check role >= required
const (
	RoleBuyer  Role = 1
	RoleSeller Role = 2
	RoleAdmin  Role = 3
)

// ParseRole maps the wire representation of a role to its level.
// Unknown or empty values default to buyer; admin cannot be self-assigned.
func ParseRole(s string) Role {
	if s == "seller" {
		return RoleSeller
	}
	return RoleBuyer
}

// String returns the wire representation of the role
func (r Role) String() string {
	switch r {
	case RoleSeller:
		return "seller"
	case RoleAdmin:
		return "admin"
	default:
		return "buyer"
	}
}

// User represents an account in the system
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         Role   `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
	StoreName    string `json:"storeName,omitempty"`
}

// UserToken stores an issued refresh token
type UserToken struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Token  string `json:"token"`
}

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // "buyer" (default) or "seller"
}

// LoginRequest is the payload for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
