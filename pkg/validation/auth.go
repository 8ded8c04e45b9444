package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Roles accepted at registration
var validRoles = map[string]bool{
	"student":      true,
	"parent":       true,
	"professional": true,
}

// AuthRequestValidator validates authentication-related requests
type AuthRequestValidator struct{}

// NewAuthRequestValidator creates a new AuthRequestValidator
func NewAuthRequestValidator() *AuthRequestValidator {
	return &AuthRequestValidator{}
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates an already normalized email address
func (v *AuthRequestValidator) ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}

	if len(email) > 255 {
		return fmt.Errorf("email must be at most 255 characters long, got %d", len(email))
	}

	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}

	return nil
}

// ValidatePassword enforces the password policy: 8 to 128 characters with at least
// one uppercase letter, one lowercase letter and one digit.
func (v *AuthRequestValidator) ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long, got %d", len(password))
	}

	if len(password) > 128 {
		return fmt.Errorf("password must be at most 128 characters long, got %d", len(password))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain an uppercase letter, a lowercase letter and a digit")
	}

	return nil
}

// ValidateFullName validates a display name
func (v *AuthRequestValidator) ValidateFullName(fullName string) error {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return errors.New("full name cannot be empty")
	}

	if n := utf8.RuneCountInString(name); n > 100 {
		return fmt.Errorf("full name must be at most 100 characters long, got %d", n)
	}

	return nil
}

// ValidateRole validates a registration role. Empty means the default role.
func (v *AuthRequestValidator) ValidateRole(role string) error {
	if role == "" {
		return nil
	}

	if !validRoles[role] {
		return fmt.Errorf("role must be one of: student, parent, professional; got %s", role)
	}
	return nil
}

// ValidateLoginRequest validates a login request
func (v *AuthRequestValidator) ValidateLoginRequest(email, password string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}

	if password == "" {
		return errors.New("password cannot be empty")
	}

	return nil
}

// ValidateRegisterRequest validates a registration request
func (v *AuthRequestValidator) ValidateRegisterRequest(email, password, fullName, role string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}

	if err := v.ValidatePassword(password); err != nil {
		return err
	}

	if err := v.ValidateFullName(fullName); err != nil {
		return err
	}

	if err := v.ValidateRole(role); err != nil {
		return err
	}

	return nil
}
