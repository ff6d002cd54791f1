package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost factor used when none is configured
const DefaultBcryptCost = 12

// ErrHashFormat signals that a stored password hash is malformed and
// cannot be compared against. A plain mismatch is not an error.
var ErrHashFormat = errors.New("malformed password hash")

// PasswordHasher handles one-way password hashing and verification
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with the given bcrypt cost
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash creates a salted bcrypt hash of the password. The salt is
// randomized per call, so two hashes of the same input differ.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares a password with its stored hash. It returns false on a
// mismatch and ErrHashFormat only when the stored hash itself is invalid.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrHashFormat, err)
}

// Cost returns the configured bcrypt cost factor
func (h *PasswordHasher) Cost() int {
	return h.cost
}
