package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/immeasurable-vikrant/taskFlow/database"
)

// Config configures the auth module.
type Config struct {
	JWT        JWTConfig
	BcryptCost int
	// Cache is optional; leave nil to read users straight from the store.
	Cache UserCache
}

// AuthModule provides authentication services.
type AuthModule struct {
	conn    *database.Connection
	config  Config
	repo    UserRepository
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule over an open store connection.
func NewModule(conn *database.Connection, config Config) *AuthModule {
	return &AuthModule{
		conn:   conn,
		config: config,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start prepares the user store and the token manager.
func (m *AuthModule) Start(ctx context.Context) error {
	switch {
	case m.conn == nil:
		return errors.New("database connection not set")
	case m.conn.Gorm != nil:
		m.repo = NewGormUserRepository(m.conn.Gorm)
	case m.conn.Mongo != nil:
		m.repo = NewMongoUserRepository(m.conn.Mongo)
	default:
		return errors.New("database connection has no store")
	}

	if err := m.repo.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate users: %w", err)
	}

	jwtConfig := m.config.JWT
	if jwtConfig.SecretKey == "" {
		secret, err := GenerateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate signing secret: %w", err)
		}
		jwtConfig.SecretKey = secret
		log.Println("[auth] Warning: JWT_SECRET not set, using a random per-process secret; sessions will not survive a restart")
	}

	m.service = NewAuthService(
		m.repo,
		NewPasswordHasher(m.config.BcryptCost),
		NewJWTManager(jwtConfig),
		m.config.Cache,
	)

	log.Printf("[auth] Module started (store: %s, user cache: %t)", m.conn.Driver, m.config.Cache != nil)
	return nil
}

// Stop shuts down the module. The store connection is owned by main.
func (m *AuthModule) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil || m.conn == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}

	if err := m.conn.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"store":      m.conn.Driver,
			"user_cache": m.config.Cache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "signup", json.Unmarshal, json.Marshal, m.handleSignup,
	); err != nil {
		return fmt.Errorf("failed to register signup service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "signin", json.Unmarshal, json.Marshal, m.handleSignin,
	); err != nil {
		return fmt.Errorf("failed to register signin service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-session", json.Unmarshal, json.Marshal, m.handleValidateSession,
	); err != nil {
		return fmt.Errorf("failed to register validate-session service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	log.Printf("[auth] Registered services: signup, signin, validate-session, get-user")
	return nil
}

func (m *AuthModule) handleSignup(ctx context.Context, req SignupRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Signup(ctx, req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return SessionResponse{}, err
	}
	return toSessionResponse(session), nil
}

func (m *AuthModule) handleSignin(ctx context.Context, req SigninRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Signin(ctx, req.Email, req.Password)
	if err != nil {
		return SessionResponse{}, err
	}
	return toSessionResponse(session), nil
}

// handleValidateSession reports validation failures in the response, not as errors.
func (m *AuthModule) handleValidateSession(ctx context.Context, req ValidateSessionRequest, _ *mono.Msg) (ValidateSessionResponse, error) {
	claims, err := m.service.ValidateSession(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrExpiredToken):
			return ValidateSessionResponse{Valid: false, Error: "token expired"}, nil
		case errors.Is(err, ErrInvalidToken):
			return ValidateSessionResponse{Valid: false, Error: "invalid token"}, nil
		case errors.Is(err, ErrUserNotFound):
			return ValidateSessionResponse{Valid: false, Error: "user no longer exists"}, nil
		}
		return ValidateSessionResponse{}, err
	}

	return ValidateSessionResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	profile, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{}, err
	}
	return GetUserResponse{User: *profile}, nil
}

func toSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		User:      s.User,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}
