package auth

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FieldError represents a validation error with field details
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Rule describes one field validation: the value to check, the validator
// tag to check it with, and the message reported when the check fails.
// Rules are evaluated in order, so each request's rule list is the full,
// declarative description of its input shape.
type Rule struct {
	Field   string
	Value   string
	Tag     string
	Message string
}

var nameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// validate is the shared rule engine behind Validate
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()

	// Letters and spaces only
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return nameRe.MatchString(fl.Field().String())
	})

	// At least one uppercase letter, one lowercase letter and one number
	_ = v.RegisterValidation("passwordchars", func(fl validator.FieldLevel) bool {
		var hasUpper, hasLower, hasNumber bool
		for _, char := range fl.Field().String() {
			switch {
			case unicode.IsUpper(char):
				hasUpper = true
			case unicode.IsLower(char):
				hasLower = true
			case unicode.IsDigit(char):
				hasNumber = true
			}
		}
		return hasUpper && hasLower && hasNumber
	})

	return v
}

// Validate evaluates an ordered rule list and returns one FieldError per
// failed rule. An empty result means the input passed shape validation.
func Validate(rules []Rule) []FieldError {
	var errs []FieldError
	for _, rule := range rules {
		if err := validate.Var(rule.Value, rule.Tag); err != nil {
			errs = append(errs, FieldError{Field: rule.Field, Message: rule.Message})
		}
	}
	return errs
}

// registerRules mirrors the registration input contract
func registerRules(req RegisterRequest) []Rule {
	return []Rule{
		{Field: "name", Value: req.Name, Tag: "required,min=2,max=100", Message: "Name must be between 2 and 100 characters"},
		{Field: "name", Value: req.Name, Tag: "omitempty,alphaspace", Message: "Name can only contain letters and spaces"},
		{Field: "email", Value: req.Email, Tag: "required,email", Message: "Please provide a valid email address"},
		{Field: "password", Value: req.Password, Tag: "required,min=8", Message: "Password must be at least 8 characters long"},
		{Field: "password", Value: req.Password, Tag: "omitempty,passwordchars", Message: "Password must contain at least one uppercase letter, one lowercase letter, and one number"},
		{Field: "phone", Value: req.Phone, Tag: "omitempty,max=20", Message: "Phone number cannot be more than 20 characters"},
		{Field: "company", Value: req.Company, Tag: "omitempty,max=100", Message: "Company name cannot be more than 100 characters"},
	}
}

// loginRules mirrors the login input contract
func loginRules(req LoginRequest) []Rule {
	return []Rule{
		{Field: "email", Value: req.Email, Tag: "required,email", Message: "Please provide a valid email address"},
		{Field: "password", Value: req.Password, Tag: "required", Message: "Password is required"},
	}
}

// profileUpdateRules mirrors the profile update input contract; every
// field is optional.
func profileUpdateRules(req UpdateProfileRequest) []Rule {
	return []Rule{
		{Field: "name", Value: req.Name, Tag: "omitempty,min=2,max=100", Message: "Name must be between 2 and 100 characters"},
		{Field: "name", Value: req.Name, Tag: "omitempty,alphaspace", Message: "Name can only contain letters and spaces"},
		{Field: "phone", Value: deref(req.Phone), Tag: "omitempty,max=20", Message: "Phone number cannot be more than 20 characters"},
		{Field: "company", Value: deref(req.Company), Tag: "omitempty,max=100", Message: "Company name cannot be more than 100 characters"},
	}
}

// changePasswordRules mirrors the password change input contract
func changePasswordRules(req ChangePasswordRequest) []Rule {
	return []Rule{
		{Field: "currentPassword", Value: req.CurrentPassword, Tag: "required", Message: "Current password is required"},
		{Field: "newPassword", Value: req.NewPassword, Tag: "required,min=8", Message: "New password must be at least 8 characters long"},
		{Field: "newPassword", Value: req.NewPassword, Tag: "omitempty,passwordchars", Message: "New password must contain at least one uppercase letter, one lowercase letter, and one number"},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
