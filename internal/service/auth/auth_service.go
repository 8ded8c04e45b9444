package auth

import (
	"codecalm/internal/common"
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	"codecalm/pkg/validation"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// tokenBytes is the entropy of a session token before encoding
const tokenBytes = 32

// RegisterRequest is the input for account creation
type RegisterRequest struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// LoginRequest carries credentials plus the client metadata stored on the session
type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// AuthService handles registration, login and session validation
type AuthService struct {
	db         db.Database
	validator  *validation.AuthRequestValidator
	sessionTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

type Option func(*AuthService)

// WithClock overrides time.Now for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService creates a new AuthService
func NewAuthService(database db.Database, sessionTTL time.Duration, bcryptCost int, opts ...Option) *AuthService {
	s := &AuthService{
		db:         database,
		validator:  validation.NewAuthRequestValidator(),
		sessionTTL: sessionTTL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the request and creates an active user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*db.User, error) {
	email := validation.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)

	if err := s.validator.ValidateRegisterRequest(email, req.Password, fullName, req.Role); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	role := req.Role
	if role == "" {
		role = db.UserRoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.db.CreateUser(ctx, email, string(hash), fullName, role)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return user, nil
}

// Login checks credentials and issues a new session. Unknown emails and wrong passwords
// both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*db.Session, *db.User, error) {
	email := validation.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLoginRequest(email, req.Password); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	log := logger.FromContext(ctx)

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Warn("Login failed: unknown email")
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.WithField("user_id", user.ID).Warn("Login failed: password mismatch")
		return nil, nil, common.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.WithField("user_id", user.ID).Warn("Login refused: account inactive")
		return nil, nil, common.ErrAccountInactive
	}

	token, err := newToken()
	if err != nil {
		return nil, nil, fmt.Errorf("error generating session token: %w", err)
	}

	now := s.now()
	session, err := s.db.CreateSession(ctx, &db.Session{
		UserID:    user.ID,
		Token:     token,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating session: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User logged in")
	return session, user, nil
}

// Logout revokes the session. Revoking an unknown token is unauthorized.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.db.RevokeSession(ctx, token); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrUnauthorized
		}
		return fmt.Errorf("error revoking session: %w", err)
	}
	return nil
}

// Validate resolves a bearer token to the owning user id. Revoked, expired and unknown
// tokens, and tokens of deactivated users, are all common.ErrUnauthorized.
func (s *AuthService) Validate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, common.ErrUnauthorized
	}

	session, err := s.db.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, common.ErrUnauthorized
		}
		return 0, fmt.Errorf("error loading session: %w", err)
	}

	if !session.IsValid(s.now()) {
		return 0, common.ErrUnauthorized
	}

	user, err := s.db.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, common.ErrUnauthorized
		}
		return 0, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return 0, common.ErrUnauthorized
	}

	return user.ID, nil
}

// Profile returns the user record for userID.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*db.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return user, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
