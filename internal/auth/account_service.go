package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/syrotech/backend/internal/metrics"
	"github.com/syrotech/backend/internal/repository"
	"github.com/syrotech/backend/internal/sanitizer"
)

// Account service errors
var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents the profile update payload. Phone and
// company are pointers so an absent field is distinguishable from an
// explicit empty string, which clears the stored value.
type UpdateProfileRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

// ChangePasswordRequest represents the password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PublicUser is the sanitized external representation of an account.
// Password hash, attempt counter and lock timestamp are structurally
// absent, not merely omitted.
type PublicUser struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Company         string     `json:"company,omitempty"`
	Role            string     `json:"role"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// AuthResult is the outcome of a successful registration or login
type AuthResult struct {
	Token string
	User  *PublicUser
}

// Sanitize converts a stored account into its external representation
func Sanitize(user *repository.User) *PublicUser {
	return &PublicUser{
		ID:              user.ID.String(),
		Name:            user.Name,
		Email:           user.Email,
		Phone:           user.Phone,
		Company:         user.Company,
		Role:            string(user.Role),
		IsEmailVerified: user.IsEmailVerified,
		LastLogin:       user.LastLoginAt,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// AccountService orchestrates registration, login, profile management
// and password changes over the credential store.
type AccountService struct {
	repo      repository.UserRepository
	hasher    *PasswordHasher
	tokens    *TokenService
	lockout   *LockoutPolicy
	sanitizer *sanitizer.ProfileSanitizer
	logger    *slog.Logger
}

// NewAccountService creates a new AccountService instance
func NewAccountService(
	repo repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenService,
	lockout *LockoutPolicy,
	logger *slog.Logger,
) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		lockout:   lockout,
		sanitizer: sanitizer.NewProfileSanitizer(),
		logger:    logger,
	}
}

// Register creates a new account, hashes the password and issues a token
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, []FieldError, error) {
	if fieldErrors := Validate(registerRules(req)); len(fieldErrors) > 0 {
		return nil, fieldErrors, nil
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, nil, ErrEmailExists
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repo.Create(ctx, repository.CreateUserParams{
		Name:         s.sanitizer.Clean(req.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        strings.TrimSpace(req.Phone),
		Company:      s.sanitizer.Clean(req.Company),
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	s.logger.Info("user registered", "user_id", user.ID)

	return &AuthResult{Token: token, User: Sanitize(user)}, nil, nil
}

// Login evaluates the lockout policy, verifies the password, clears the
// lockout counters on success and issues a token. The lockout check runs
// strictly before the password verdict, so a locked account never learns
// whether the password was correct.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same error as a wrong password, to prevent enumeration
			metrics.LoginsTotal.WithLabelValues("unknown_email").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if IsLocked(user, time.Now()) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, ErrAccountLocked
	}

	creds, err := s.repo.GetCredentials(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	ok, err := s.hasher.Verify(req.Password, creds.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		locked, err := s.lockout.RegisterFailure(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("record failed attempt: %w", err)
		}
		if locked {
			// The attempt that crossed the threshold is already
			// rejected with the locked-account message
			metrics.LockoutsTotal.Inc()
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
			s.logger.Warn("account locked after repeated failures", "user_id", user.ID)
			return nil, ErrAccountLocked
		}
		metrics.LoginsTotal.WithLabelValues("wrong_password").Inc()
		return nil, ErrInvalidCredentials
	}

	user, err = s.lockout.Clear(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("clear lockout: %w", err)
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", "user_id", user.ID)

	return &AuthResult{Token: token, User: Sanitize(user)}, nil
}

// GetProfile returns the sanitized account for the given ID
func (s *AccountService) GetProfile(ctx context.Context, id uuid.UUID) (*PublicUser, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return Sanitize(user), nil
}

// UpdateProfile mutates name, phone and company only. Calling it twice
// with the same payload yields the same stored state.
func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*PublicUser, []FieldError, error) {
	if fieldErrors := Validate(profileUpdateRules(req)); len(fieldErrors) > 0 {
		return nil, fieldErrors, nil
	}

	update := repository.ProfileUpdate{
		Name:    s.sanitizer.Clean(req.Name),
		Phone:   req.Phone,
		Company: req.Company,
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		update.Phone = &trimmed
	}
	if req.Company != nil {
		cleaned := s.sanitizer.Clean(*req.Company)
		update.Company = &cleaned
	}

	user, err := s.repo.UpdateProfile(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("update profile: %w", err)
	}

	return Sanitize(user), nil, nil
}

// ChangePassword verifies the current password and stores a new hash.
// The stored hash is untouched when the current password is wrong.
func (s *AccountService) ChangePassword(ctx context.Context, id uuid.UUID, req ChangePasswordRequest) ([]FieldError, error) {
	if fieldErrors := Validate(changePasswordRules(req)); len(fieldErrors) > 0 {
		return fieldErrors, nil
	}

	creds, err := s.repo.GetCredentials(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	ok, err := s.hasher.Verify(req.CurrentPassword, creds.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrWrongPassword
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePassword(ctx, id, newHash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password changed", "user_id", id)
	return nil, nil
}
