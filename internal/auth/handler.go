package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	appctx "github.com/syrotech/backend/internal/context"
	"github.com/syrotech/backend/internal/logger"
)

// Response messages shared with the front end
const (
	MsgDuplicateEmail    = "User already exists with this email address"
	MsgInvalidCreds      = "Invalid email or password"
	MsgAccountLocked     = "Account is temporarily locked due to too many failed login attempts. Please try again later."
	MsgValidationFailed  = "Validation failed"
	MsgUserNotFound      = "User not found"
	MsgWrongCurrentPass  = "Current password is incorrect"
	MsgRegistered        = "User registered successfully"
	MsgLoginOK           = "Login successful"
	MsgProfileUpdated    = "Profile updated successfully"
	MsgPasswordChanged   = "Password changed successfully"
	MsgTokenValid        = "Token is valid"
	MsgServerErrRegister = "Server error during registration"
	MsgServerErrLogin    = "Server error during login"
	MsgServerErrProfile  = "Server error fetching profile"
	MsgServerErrUpdate   = "Server error updating profile"
	MsgServerErrPassword = "Server error changing password"
)

// authResponse is the success envelope for register and login
type authResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *PublicUser `json:"user"`
}

// profileResponse is the success envelope for profile reads and updates
type profileResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *PublicUser `json:"user"`
}

// messageResponse is the success envelope for confirmation-only replies
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// verifyResponse echoes the authenticated identity
type verifyResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    identityEcho `json:"user"`
}

type identityEcho struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// errorResponse is the shared error envelope
type errorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Handler handles HTTP requests for account endpoints
type Handler struct {
	accounts *AccountService
	logger   *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(accounts *AccountService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{accounts: accounts, logger: log}
}

// Register handles user registration
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	result, fieldErrors, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			writeError(w, http.StatusBadRequest, MsgDuplicateEmail, nil)
			return
		}
		h.logError(r, "registration failed", err)
		writeError(w, http.StatusInternalServerError, MsgServerErrRegister, nil)
		return
	}
	if len(fieldErrors) > 0 {
		writeError(w, http.StatusBadRequest, MsgValidationFailed, fieldErrors)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: MsgRegistered,
		Token:   result.Token,
		User:    result.User,
	})
}

// Login handles user authentication
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if fieldErrors := Validate(loginRules(req)); len(fieldErrors) > 0 {
		writeError(w, http.StatusBadRequest, MsgValidationFailed, fieldErrors)
		return
	}

	result, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, MsgInvalidCreds, nil)
		case errors.Is(err, ErrAccountLocked):
			writeError(w, http.StatusUnauthorized, MsgAccountLocked, nil)
		default:
			h.logError(r, "login failed", err)
			writeError(w, http.StatusInternalServerError, MsgServerErrLogin, nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: MsgLoginOK,
		Token:   result.Token,
		User:    result.User,
	})
}

// GetProfile handles profile reads for the authenticated account
// GET /api/auth/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := appctx.ExtractAccount(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, token failed", nil)
		return
	}

	// Re-fetch: the account can vanish between auth and this read
	profile, err := h.accounts.GetProfile(r.Context(), account.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, MsgUserNotFound, nil)
			return
		}
		h.logError(r, "profile fetch failed", err)
		writeError(w, http.StatusInternalServerError, MsgServerErrProfile, nil)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Success: true, User: profile})
}

// UpdateProfile handles profile mutations (name, phone, company only)
// PUT /api/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := appctx.ExtractAccount(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, token failed", nil)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	profile, fieldErrors, err := h.accounts.UpdateProfile(r.Context(), account.ID, req)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, MsgUserNotFound, nil)
			return
		}
		h.logError(r, "profile update failed", err)
		writeError(w, http.StatusInternalServerError, MsgServerErrUpdate, nil)
		return
	}
	if len(fieldErrors) > 0 {
		writeError(w, http.StatusBadRequest, MsgValidationFailed, fieldErrors)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Success: true,
		Message: MsgProfileUpdated,
		User:    profile,
	})
}

// ChangePassword re-hashes and stores a new password after verifying the
// current one
// PUT /api/auth/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account, ok := appctx.ExtractAccount(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, token failed", nil)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	fieldErrors, err := h.accounts.ChangePassword(r.Context(), account.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			writeError(w, http.StatusBadRequest, MsgWrongCurrentPass, nil)
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, MsgUserNotFound, nil)
		default:
			h.logError(r, "password change failed", err)
			writeError(w, http.StatusInternalServerError, MsgServerErrPassword, nil)
		}
		return
	}
	if len(fieldErrors) > 0 {
		writeError(w, http.StatusBadRequest, MsgValidationFailed, fieldErrors)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: MsgPasswordChanged})
}

// Verify echoes the authenticated identity
// GET /api/auth/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	account, ok := appctx.ExtractAccount(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, token failed", nil)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		Message: MsgTokenValid,
		User: identityEcho{
			ID:    account.ID.String(),
			Name:  account.Name,
			Email: account.Email,
			Role:  string(account.Role),
		},
	})
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	logger.WithCorrelationID(r.Context(), h.logger).Error(msg, "error", err)
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes the shared error envelope
func writeError(w http.ResponseWriter, statusCode int, message string, fieldErrors []FieldError) {
	writeJSON(w, statusCode, errorResponse{
		Success: false,
		Message: message,
		Errors:  fieldErrors,
	})
}
