package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification errors. Callers map both to the same generic
// unauthorized response; the distinction exists for logs and tests.
var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents the JWT claims structure. The account ID is carried
// in the registered Subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// AccountID returns the account ID from the Subject claim
func (c *Claims) AccountID() string {
	return c.Subject
}

// TokenService issues and verifies signed, time-limited bearer tokens.
// The signing secret is process-wide configuration loaded once at
// startup; rotating it invalidates all outstanding tokens.
type TokenService struct {
	secret      string
	tokenExpiry time.Duration
	issuer      string
}

// TokenServiceConfig holds configuration for TokenService
type TokenServiceConfig struct {
	Secret      string
	TokenExpiry time.Duration
	Issuer      string
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	expiry := cfg.TokenExpiry
	if expiry == 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:      cfg.Secret,
		tokenExpiry: expiry,
		issuer:      cfg.Issuer,
	}
}

// Issue produces a signed token embedding the account ID and an
// expiration claim.
func (s *TokenService) Issue(accountID string) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks signature validity and expiration and returns the
// embedded account ID. Failures are ErrTokenExpired for a token past
// its expiry and ErrTokenInvalid for anything else.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(s.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.AccountID(), nil
}

// TokenExpiry returns the configured token lifetime
func (s *TokenService) TokenExpiry() time.Duration {
	return s.tokenExpiry
}
