package repository

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level assigned to a user account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a user account in the database.
// The password hash is deliberately not part of this struct: default reads
// never return it, and Credentials is the only hash-bearing representation.
type User struct {
	ID              uuid.UUID  `db:"id"`
	Name            string     `db:"name"`
	Email           string     `db:"email"`
	Phone           string     `db:"phone"`
	Company         string     `db:"company"`
	Role            Role       `db:"role"`
	IsEmailVerified bool       `db:"is_email_verified"`
	LastLoginAt     *time.Time `db:"last_login_at"`
	LoginAttempts   int        `db:"login_attempts"`
	LockUntil       *time.Time `db:"lock_until"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// Credentials is the hash-bearing read of a user account, returned only by
// the explicit GetCredentials call.
type Credentials struct {
	UserID       uuid.UUID `db:"id"`
	PasswordHash string    `db:"password_hash"`
}

// CreateUserParams holds the fields for creating a new user account
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Company      string
}

// ProfileUpdate holds the updatable profile fields. An empty Name means
// no change; nil Phone/Company mean no change, non-nil values overwrite
// (including clearing with an empty string).
type ProfileUpdate struct {
	Name    string
	Phone   *string
	Company *string
}

// LockoutState is the attempt counter and lock timestamp after recording
// a failed login, as returned by the store's atomic update.
type LockoutState struct {
	LoginAttempts int
	LockUntil     *time.Time
}
