package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/syrotech/backend/internal/repository"
)

// Lockout defaults
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 30 * time.Minute
)

// IsLocked reports whether the account is locked at the given instant.
// The lock state is derived from lock_until on every access, never stored.
func IsLocked(user *repository.User, now time.Time) bool {
	return user.LockUntil != nil && user.LockUntil.After(now)
}

// LockoutPolicy tracks failed login attempts per account and enforces a
// temporary lock once the threshold is reached. All state lives on the
// account row; transitions are applied through the store's atomic update
// so concurrent failures cannot under-count the threshold.
type LockoutPolicy struct {
	repo      repository.UserRepository
	threshold int
	duration  time.Duration
}

// NewLockoutPolicy creates a LockoutPolicy with the given threshold and
// lock duration.
func NewLockoutPolicy(repo repository.UserRepository, threshold int, duration time.Duration) *LockoutPolicy {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	return &LockoutPolicy{
		repo:      repo,
		threshold: threshold,
		duration:  duration,
	}
}

// RegisterFailure counts one failed login attempt and reports whether the
// account is locked after this attempt. An attempt against an expired
// lock restarts the counter at 1; the attempt that reaches the threshold
// sets the lock.
func (p *LockoutPolicy) RegisterFailure(ctx context.Context, id uuid.UUID) (bool, error) {
	state, err := p.repo.RecordFailedAttempt(ctx, id, p.threshold, p.duration.Seconds())
	if err != nil {
		return false, err
	}
	return state.LockUntil != nil && state.LockUntil.After(time.Now()), nil
}

// Clear resets the attempt counter and lock after a successful login and
// stamps the login time, returning the updated account.
func (p *LockoutPolicy) Clear(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	return p.repo.RecordSuccessfulLogin(ctx, id)
}

// Threshold returns the configured failed-attempt threshold
func (p *LockoutPolicy) Threshold() int {
	return p.threshold
}

// Duration returns the configured lock duration
func (p *LockoutPolicy) Duration() time.Duration {
	return p.duration
}
