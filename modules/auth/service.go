package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	domain "github.com/immeasurable-vikrant/taskFlow/domain/user"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidInput prefixes every signup/signin validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned when signin credentials are invalid.
	// Unknown emails and wrong passwords both produce it.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Credential limits.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt input limit
	MaxNameLength     = 50
)

// userLookupTimeout bounds a shared user lookup once it is detached from the
// caller's context.
const userLookupTimeout = 5 * time.Second

// UserCache is the cache-aside store for session user lookups.
type UserCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Session is the outcome of a successful signup or signin.
type Session struct {
	User      domain.Profile
	Token     string
	ExpiresAt time.Time
}

// AuthService handles authentication business logic.
type AuthService struct {
	repo   UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	cache  UserCache

	lookups singleflight.Group
}

// NewAuthService creates a new AuthService. cache may be nil.
func NewAuthService(repo UserRepository, hasher *PasswordHasher, jwt *JWTManager, cache UserCache) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		cache:  cache,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a new account and starts a session for it.
func (s *AuthService) Signup(ctx context.Context, firstName, lastName, email, password string) (*Session, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = NormalizeEmail(email)

	if err := validateName("firstName", firstName); err != nil {
		return nil, err
	}
	if err := validateName("lastName", lastName); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still rejects a concurrent signup that passed the check above.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("[auth] User signed up: %s", user.ID)
	return s.newSession(user)
}

// Signin verifies credentials and starts a session.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(user)
}

// ValidateSession resolves a token to the identity of a live user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}

	profile, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: profile.ID,
		Email:  profile.Email,
	}, nil
}

// GetUser returns the public profile of a user, reading through the cache
// when one is configured. Concurrent misses for the same user share one
// repository lookup.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}

	if s.cache != nil {
		var cached domain.Profile
		found, err := s.cache.Get(ctx, userID, &cached)
		if err != nil {
			log.Printf("[auth] Cache read failed for user %s: %v", userID, err)
		} else if found {
			return &cached, nil
		}
	}

	v, err, _ := s.lookups.Do(userID, func() (any, error) {
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), userLookupTimeout)
		defer cancel()

		user, err := s.repo.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		profile := user.Profile()

		if s.cache != nil {
			if err := s.cache.Set(ctx, userID, profile); err != nil {
				log.Printf("[auth] Cache write failed for user %s: %v", userID, err)
			}
		}
		return &profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Profile), nil
}

func (s *AuthService) newSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{
		User:      user.Profile(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func validateName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, MaxNameLength)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters", ErrInvalidInput, MaxPasswordLength)
	}
	return nil
}
