package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/immeasurable-vikrant/taskFlow/domain/user"
)

// ErrInvalidSession is returned by ValidateSession when the token was checked
// and rejected. Any other error means the check itself could not complete.
var ErrInvalidSession = errors.New("session validation failed")

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error)
	Signin(ctx context.Context, req SigninRequest) (*SessionResponse, error)
	ValidateSession(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.Profile, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Signup creates an account and returns the new session.
func (a *AuthAdapter) Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error) {
	var resp SessionResponse
	if err := call(ctx, a.container, "signup", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signin verifies credentials and returns the new session.
func (a *AuthAdapter) Signin(ctx context.Context, req SigninRequest) (*SessionResponse, error) {
	var resp SessionResponse
	if err := call(ctx, a.container, "signin", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateSession resolves a token to the identity of a live user.
func (a *AuthAdapter) ValidateSession(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateSessionRequest{Token: token}
	var resp ValidateSessionResponse
	if err := call(ctx, a.container, "validate-session", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
	}, nil
}

// GetUser retrieves a user profile by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := call(ctx, a.container, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}
