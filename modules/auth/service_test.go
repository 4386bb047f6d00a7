package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/immeasurable-vikrant/taskFlow/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	repo := NewGormUserRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// memoryCache is an in-process UserCache.
type memoryCache struct {
	mu    sync.Mutex
	items map[string]domain.Profile
	gets  int
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]domain.Profile)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	p, ok := c.items[key]
	if ok {
		*dest.(*domain.Profile) = p
	}
	return ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = value.(domain.Profile)
	return nil
}

func newTestService(t *testing.T, cache UserCache) (*AuthService, *GormUserRepository) {
	t.Helper()
	repo := NewGormUserRepository(setupTestDB(t))
	return NewAuthService(repo, NewPasswordHasher(bcrypt.MinCost), NewJWTManager(testJWTConfig()), cache), repo
}

func TestAuthService_Signup(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	session, err := svc.Signup(ctx, " Ada ", "Lovelace", "  Ada@Example.COM ", "secret1")
	require.NoError(t, err)

	assert.NotEmpty(t, session.User.ID)
	assert.Equal(t, "Ada", session.User.FirstName)
	assert.Equal(t, "Lovelace", session.User.LastName)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	stored, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ada", "Lovelace", "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "Other", "Person", "ADA@example.com", "secret2")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestGormUserRepository_UniqueIndex(t *testing.T) {
	repo := NewGormUserRepository(setupTestDB(t))
	ctx := context.Background()

	first := &domain.User{ID: "u1", FirstName: "A", LastName: "B", Email: "dup@example.com", PasswordHash: "x"}
	second := &domain.User{ID: "u2", FirstName: "C", LastName: "D", Email: "dup@example.com", PasswordHash: "y"}

	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, second), ErrUserExists)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		first     string
		last      string
		email     string
		password  string
		wantInMsg string
	}{
		{"missing first name", "", "Lovelace", "ada@example.com", "secret1", "firstName is required"},
		{"missing last name", "Ada", "  ", "ada@example.com", "secret1", "lastName is required"},
		{"long name", strings.Repeat("a", 51), "Lovelace", "ada@example.com", "secret1", "at most 50"},
		{"missing email", "Ada", "Lovelace", "", "secret1", "email is required"},
		{"bad email", "Ada", "Lovelace", "ada-at-example.com", "secret1", "invalid email format"},
		{"display name email", "Ada", "Lovelace", "Ada <ada@example.com>", "secret1", "invalid email format"},
		{"short password", "Ada", "Lovelace", "ada@example.com", "12345", "at least 6"},
		{"long password", "Ada", "Lovelace", "ada@example.com", strings.Repeat("p", 73), "at most 72"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.first, tt.last, tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantInMsg)
		})
	}
}

func TestAuthService_Signin(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	signup, err := svc.Signup(ctx, "Ada", "Lovelace", "ada@example.com", "secret1")
	require.NoError(t, err)

	signin, err := svc.Signin(ctx, " ADA@example.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, signup.User.ID, signin.User.ID)
	assert.NotEqual(t, signup.Token, signin.Token)
}

func TestAuthService_Signin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ada", "Lovelace", "ada@example.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := svc.Signin(ctx, "ada@example.com", "wrong-password")
	_, unknownEmail := svc.Signin(ctx, "nobody@example.com", "secret1")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_Signin_MissingFields(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Signin(context.Background(), "", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthService_ValidateSession(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	session, err := svc.Signup(ctx, "Ada", "Lovelace", "ada@example.com", "secret1")
	require.NoError(t, err)

	claims, err := svc.ValidateSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	_, err = svc.ValidateSession(ctx, session.Token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A valid token for a user that no longer exists is rejected.
	require.NoError(t, repo.db.Delete(&domain.User{}, "id = ?", session.User.ID).Error)
	_, err = svc.ValidateSession(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_GetUser_UsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc, _ := newTestService(t, cache)
	ctx := context.Background()

	session, err := svc.Signup(ctx, "Ada", "Lovelace", "ada@example.com", "secret1")
	require.NoError(t, err)

	first, err := svc.GetUser(ctx, session.User.ID)
	require.NoError(t, err)
	second, err := svc.GetUser(ctx, session.User.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets, "profile should be cached once")
	assert.Equal(t, 2, cache.gets)
}

// gatedRepository holds FindByID until release is closed.
type gatedRepository struct {
	UserRepository
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.entered <- struct{}{}
	<-r.release
	return r.UserRepository.FindByID(ctx, id)
}

func TestAuthService_GetUser_SharedLookupSurvivesCallerCancel(t *testing.T) {
	base, repo := newTestService(t, nil)
	session, err := base.Signup(context.Background(), "Ada", "Lovelace", "ada@example.com", "secret1")
	require.NoError(t, err)

	gated := &gatedRepository{
		UserRepository: repo,
		entered:        make(chan struct{}, 2),
		release:        make(chan struct{}),
	}
	svc := NewAuthService(gated, NewPasswordHasher(bcrypt.MinCost), NewJWTManager(testJWTConfig()), nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.GetUser(firstCtx, session.User.ID)
		firstErr <- err
	}()
	<-gated.entered

	type result struct {
		profile *domain.Profile
		err     error
	}
	second := make(chan result, 1)
	go func() {
		p, err := svc.GetUser(context.Background(), session.User.ID)
		second <- result{p, err}
	}()

	cancelFirst()
	time.Sleep(20 * time.Millisecond)
	close(gated.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, session.User.ID, got.profile.ID)
	assert.NoError(t, <-firstErr)
}

func TestAuthService_GetUser_NotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.GetUser(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrUserNotFound))

	_, err = svc.GetUser(context.Background(), "")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.com\t"))
}
