package auth

import (
	"time"

	domain "github.com/immeasurable-vikrant/taskFlow/domain/user"
)

// SignupRequest represents a signup request on the service bus.
type SignupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// SigninRequest represents a signin request on the service bus.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries the user and the freshly minted token.
type SessionResponse struct {
	User      domain.Profile `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ValidateSessionRequest represents a session validation request.
type ValidateSessionRequest struct {
	Token string `json:"token"`
}

// ValidateSessionResponse represents a session validation response.
type ValidateSessionResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	User domain.Profile `json:"user"`
}
