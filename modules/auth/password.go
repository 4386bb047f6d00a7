package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the default cost for bcrypt hashing.
	DefaultBcryptCost = 12

	// dummyPassword is hashed once and compared against on unknown-email
	// sign-ins so both failure paths cost one bcrypt comparison.
	dummyPassword = "taskflow-dummy-password"
)

// PasswordHasher provides password hashing and verification functionality.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewPasswordHasher creates a PasswordHasher. Costs outside bcrypt's range
// fall back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the provided password matches the hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyDummy burns one comparison against a fixed hash. It always returns false.
func (h *PasswordHasher) VerifyDummy(password string) bool {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(dummyPassword), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
	return false
}

// Cost returns the bcrypt cost used for new hashes.
func (h *PasswordHasher) Cost() int {
	return h.cost
}
