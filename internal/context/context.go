package context

import (
	"context"

	"github.com/syrotech/backend/internal/repository"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// AccountKey is the context key for the authenticated account
	AccountKey ContextKey = "account"
)

// WithAccount attaches the authenticated account to the context.
// The account is always a default (hash-free) read from the repository.
func WithAccount(ctx context.Context, user *repository.User) context.Context {
	return context.WithValue(ctx, AccountKey, user)
}

// ExtractAccount extracts the authenticated account from the request context
func ExtractAccount(ctx context.Context) (*repository.User, bool) {
	user, ok := ctx.Value(AccountKey).(*repository.User)
	return user, ok
}
