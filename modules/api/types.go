package api

import (
	userdomain "github.com/immeasurable-vikrant/taskFlow/domain/user"
)

// SignupRequest represents a signup request body.
type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

// SigninRequest represents a signin request body.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateTodoRequest represents a create-todo request body.
type CreateTodoRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateTodoRequest represents an edit-todo request body. Omitted fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Completed   *bool   `json:"completed,omitempty"`
}

// AuthResponse is returned by signup and signin.
type AuthResponse struct {
	Message string             `json:"message"`
	User    userdomain.Profile `json:"user"`
}

// UserResponse is returned by /me.
type UserResponse struct {
	User userdomain.Profile `json:"user"`
}

// VerifyResponse is returned by /verify.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// MessageResponse carries a human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// DeleteResponse is returned after a todo is deleted.
type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports the health of every module.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules"`
}

// ModuleHealth is the health of one module.
type ModuleHealth struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
