package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// userColumns are the fields of a default (hash-free) user read
const userColumns = `id, name, email, phone, company, role, is_email_verified,
	last_login_at, login_attempts, lock_until, created_at, updated_at`

// UserRepository defines the interface for user data access.
// No method of this interface returns the password hash except
// GetCredentials; every mutation is a single atomic statement.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetCredentials(ctx context.Context, id uuid.UUID) (*Credentials, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	RecordFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockSeconds float64) (*LockoutState, error)
	RecordSuccessfulLogin(ctx context.Context, id uuid.UUID) (*User, error)
}

// userRepository implements UserRepository using PostgreSQL
type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// Create inserts a new user account. The account is considered logged in
// immediately after registration, so last_login_at is stamped at insert.
func (r *userRepository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, phone, company, last_login_at)
		VALUES ($1, LOWER($2), $3, $4, $5, now())
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		params.Name,
		strings.TrimSpace(params.Email),
		params.PasswordHash,
		params.Phone,
		params.Company,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	return user, nil
}

// GetByID retrieves a user by their ID. The password hash is never selected.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetByEmail retrieves a user by their email address (case-insensitive)
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetCredentials is the explicit hash-bearing read, used only for
// password verification.
func (r *userRepository) GetCredentials(ctx context.Context, id uuid.UUID) (*Credentials, error) {
	query := `SELECT id, password_hash FROM users WHERE id = $1`

	creds := &Credentials{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&creds.UserID, &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return creds, nil
}

// EmailExists checks if an email address is already registered (case-insensitive)
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// UpdateProfile mutates name, phone and company in one statement.
// An empty name keeps the stored name; nil phone/company keep the stored
// values while non-nil values overwrite them.
func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error) {
	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
		    phone = COALESCE($3, phone),
		    company = COALESCE($4, company),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, update.Name, update.Phone, update.Company))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdatePassword stores a new password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// RecordFailedAttempt applies one failed-login transition as a single
// atomic statement, so concurrent failures for the same account cannot
// under-count the threshold:
//   - an expired lock restarts the counter at 1 and clears the lock
//   - otherwise the counter increments, and crossing the threshold sets
//     lock_until to now plus the lockout duration
//
// The returned state reflects the row after this attempt was counted.
func (r *userRepository) RecordFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockSeconds float64) (*LockoutState, error) {
	query := `
		UPDATE users
		SET login_attempts = CASE
		        WHEN lock_until IS NOT NULL AND lock_until <= now() THEN 1
		        ELSE login_attempts + 1
		    END,
		    lock_until = CASE
		        WHEN lock_until IS NOT NULL AND lock_until <= now() THEN NULL
		        WHEN lock_until IS NULL AND login_attempts + 1 >= $2 THEN now() + make_interval(secs => $3)
		        ELSE lock_until
		    END,
		    updated_at = now()
		WHERE id = $1
		RETURNING login_attempts, lock_until
	`

	state := &LockoutState{}
	err := r.pool.QueryRow(ctx, query, id, threshold, lockSeconds).Scan(&state.LoginAttempts, &state.LockUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return state, nil
}

// RecordSuccessfulLogin clears the attempt counter and lock and stamps
// last_login_at in one statement, returning the updated account.
func (r *userRepository) RecordSuccessfulLogin(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		UPDATE users
		SET login_attempts = 0,
		    lock_until = NULL,
		    last_login_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// scanUser scans a default user row
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Company,
		&user.Role,
		&user.IsEmailVerified,
		&user.LastLoginAt,
		&user.LoginAttempts,
		&user.LockUntil,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
