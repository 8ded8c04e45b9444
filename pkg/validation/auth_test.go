package validation

import (
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada.Lovelace@Example.COM "); got != "ada.lovelace@example.com" {
		t.Errorf("NormalizeEmail() = %q, want %q", got, "ada.lovelace@example.com")
	}
}

func TestAuthRequestValidator_ValidateEmail(t *testing.T) {
	validator := NewAuthRequestValidator()

	tests := []struct {
		name    string
		email   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid email",
			email:   "user@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus and subdomain",
			email:   "user+tag@mail.example.co.uk",
			wantErr: false,
		},
		{
			name:    "empty email",
			email:   "",
			wantErr: true,
			errMsg:  "email cannot be empty",
		},
		{
			name:    "missing at sign",
			email:   "user.example.com",
			wantErr: true,
			errMsg:  "invalid email format",
		},
		{
			name:    "missing tld",
			email:   "user@example",
			wantErr: true,
			errMsg:  "invalid email format",
		},
		{
			name:    "too long",
			email:   strings.Repeat("a", 250) + "@example.com",
			wantErr: true,
			errMsg:  "email must be at most 255 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateEmail() error message = %v, want to contain %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestAuthRequestValidator_ValidatePassword(t *testing.T) {
	validator := NewAuthRequestValidator()

	tests := []struct {
		name     string
		password string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid password",
			password: "Password123",
			wantErr:  false,
		},
		{
			name:     "minimum length password",
			password: "Abcdefg1",
			wantErr:  false,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
			errMsg:   "password cannot be empty",
		},
		{
			name:     "short password",
			password: "short",
			wantErr:  true,
			errMsg:   "password must be at least 8 characters long, got 5",
		},
		{
			name:     "password too long",
			password: "Aa1" + strings.Repeat("x", 126),
			wantErr:  true,
			errMsg:   "password must be at most 128 characters long",
		},
		{
			name:     "no uppercase",
			password: "password123",
			wantErr:  true,
			errMsg:   "uppercase",
		},
		{
			name:     "no lowercase",
			password: "PASSWORD123",
			wantErr:  true,
			errMsg:   "lowercase",
		},
		{
			name:     "no digit",
			password: "PasswordOnly",
			wantErr:  true,
			errMsg:   "digit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidatePassword() error message = %v, want to contain %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestAuthRequestValidator_ValidateFullNameAndRole(t *testing.T) {
	validator := NewAuthRequestValidator()

	if err := validator.ValidateFullName("Ada Lovelace"); err != nil {
		t.Errorf("ValidateFullName() error = %v, want nil", err)
	}
	if err := validator.ValidateFullName("   "); err == nil {
		t.Error("ValidateFullName(blank) error = nil, want error")
	}
	if err := validator.ValidateFullName(strings.Repeat("é", 101)); err == nil {
		t.Error("ValidateFullName(too long) error = nil, want error")
	}

	for _, role := range []string{"", "student", "parent", "professional"} {
		if err := validator.ValidateRole(role); err != nil {
			t.Errorf("ValidateRole(%q) error = %v, want nil", role, err)
		}
	}
	if err := validator.ValidateRole("admin"); err == nil {
		t.Error("ValidateRole(admin) error = nil, want error")
	}
}

func TestAuthRequestValidator_ValidateLoginRequest(t *testing.T) {
	validator := NewAuthRequestValidator()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid request", "user@example.com", "whatever", false},
		{"missing email", "", "whatever", true},
		{"missing password", "user@example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateLoginRequest(tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLoginRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthRequestValidator_ValidateRegisterRequest(t *testing.T) {
	validator := NewAuthRequestValidator()

	tests := []struct {
		name     string
		email    string
		password string
		fullName string
		role     string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid request",
			email:    "user@example.com",
			password: "Password123",
			fullName: "Test User",
			role:     "student",
		},
		{
			name:     "default role",
			email:    "user@example.com",
			password: "Password123",
			fullName: "Test User",
		},
		{
			name:     "invalid email",
			email:    "not-an-email",
			password: "Password123",
			fullName: "Test User",
			wantErr:  true,
			errMsg:   "invalid email format",
		},
		{
			name:     "weak password",
			email:    "user@example.com",
			password: "short",
			fullName: "Test User",
			wantErr:  true,
			errMsg:   "password must be at least 8 characters long",
		},
		{
			name:     "missing name",
			email:    "user@example.com",
			password: "Password123",
			wantErr:  true,
			errMsg:   "full name cannot be empty",
		},
		{
			name:     "unknown role",
			email:    "user@example.com",
			password: "Password123",
			fullName: "Test User",
			role:     "admin",
			wantErr:  true,
			errMsg:   "role must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateRegisterRequest(tt.email, tt.password, tt.fullName, tt.role)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRegisterRequest() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateRegisterRequest() error message = %v, want to contain %v", err.Error(), tt.errMsg)
			}
		})
	}
}
