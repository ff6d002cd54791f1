package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/syrotech/backend/internal/auth"
	appctx "github.com/syrotech/backend/internal/context"
	"github.com/syrotech/backend/internal/logger"
	"github.com/syrotech/backend/internal/metrics"
	"github.com/syrotech/backend/internal/repository"
)

// Gateway responses. Expired and tampered tokens share one message so a
// caller cannot distinguish the failure cause; logs keep them apart.
const (
	MsgNoToken       = "Not authorized, no token provided"
	MsgTokenFailed   = "Not authorized, token failed"
	MsgUserNotFound  = "Not authorized, user not found"
	MsgAccountLocked = "Account is temporarily locked due to too many failed login attempts"
	MsgNotAdmin      = "Not authorized as admin"
	MsgAuthFault     = "Server error in authentication middleware"
)

// gatewayError is the error envelope written by the gateway
type gatewayError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthGateway protects routes: it verifies the bearer token, re-fetches
// the account and attaches it (hash-free) to the request context.
type AuthGateway struct {
	tokens *auth.TokenService
	users  repository.UserRepository
	logger *slog.Logger
}

// NewAuthGateway creates a new AuthGateway instance
func NewAuthGateway(tokens *auth.TokenService, users repository.UserRepository, log *slog.Logger) *AuthGateway {
	if log == nil {
		log = slog.Default()
	}
	return &AuthGateway{tokens: tokens, users: users, logger: log}
}

// Authenticate validates the Authorization header, resolves the account
// and rejects locked accounts before any protected handler runs.
func (g *AuthGateway) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeGatewayError(w, http.StatusUnauthorized, MsgNoToken)
			return
		}

		accountID, err := g.tokens.Verify(token)
		if err != nil {
			// Expired and invalid stay distinct in logs and metrics only
			if errors.Is(err, auth.ErrTokenExpired) {
				metrics.TokenVerificationsTotal.WithLabelValues("expired").Inc()
				g.log(r).Warn("bearer token expired")
			} else {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				g.log(r).Warn("bearer token rejected", "reason", err)
			}
			writeGatewayError(w, http.StatusUnauthorized, MsgTokenFailed)
			return
		}

		id, err := uuid.Parse(accountID)
		if err != nil {
			metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
			writeGatewayError(w, http.StatusUnauthorized, MsgTokenFailed)
			return
		}

		user, err := g.users.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				metrics.TokenVerificationsTotal.WithLabelValues("user_not_found").Inc()
				writeGatewayError(w, http.StatusUnauthorized, MsgUserNotFound)
				return
			}
			g.log(r).Error("account lookup failed", "error", err)
			writeGatewayError(w, http.StatusInternalServerError, MsgAuthFault)
			return
		}

		if auth.IsLocked(user, time.Now()) {
			metrics.TokenVerificationsTotal.WithLabelValues("locked").Inc()
			writeGatewayError(w, http.StatusUnauthorized, MsgAccountLocked)
			return
		}

		metrics.TokenVerificationsTotal.WithLabelValues("success").Inc()
		next.ServeHTTP(w, r.WithContext(appctx.WithAccount(r.Context(), user)))
	})
}

// RequireAdmin allows only admin accounts through. It must run after
// Authenticate.
func (g *AuthGateway) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := appctx.ExtractAccount(r.Context())
		if !ok || account.Role != repository.RoleAdmin {
			writeGatewayError(w, http.StatusForbidden, MsgNotAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *AuthGateway) log(r *http.Request) *slog.Logger {
	return logger.WithCorrelationID(r.Context(), g.logger)
}

// bearerToken extracts the token from the Authorization header
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// writeGatewayError writes a JSON error response
func writeGatewayError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(gatewayError{Success: false, Message: message})
}
