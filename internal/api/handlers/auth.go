package handlers

import (
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	authService "codecalm/internal/service/auth"
	"net/http"
	"time"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type LoginResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type ValidateResponse struct {
	Valid  bool  `json:"valid"`
	UserID int64 `json:"user_id"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toUserResponse(u *db.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// AuthHandlers serves registration, login and session endpoints
type AuthHandlers struct {
	auth *authService.AuthService
}

func NewAuthHandlers(auth *authService.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// RegisterHandler creates a new user account
func (h *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.auth.Register(r.Context(), authService.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		sendServiceError(w, r, "Registration failed", err)
		return
	}

	sendJSON(w, http.StatusCreated, RegisterResponse{
		Success: true,
		Message: "User registered successfully",
		User:    toUserResponse(user),
	})
}

// LoginHandler authenticates a user and issues a session token
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	session, user, err := h.auth.Login(r.Context(), authService.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	})
	if err != nil {
		sendServiceError(w, r, "Login failed", err)
		return
	}

	sendJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      toUserResponse(user),
	})
}

// LogoutHandler revokes the caller's session
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromContext(r.Context())); err != nil {
		sendServiceError(w, r, "Logout failed", err)
		return
	}

	logger.FromContext(r.Context()).Info("User logged out")
	sendJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}

// ValidateHandler confirms the caller's session is valid
func (h *AuthHandlers) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	sendJSON(w, http.StatusOK, ValidateResponse{Valid: true, UserID: userID})
}

// ProfileHandler returns the caller's user record
func (h *AuthHandlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		sendServiceError(w, r, "Error loading profile", err)
		return
	}

	sendJSON(w, http.StatusOK, ProfileResponse{Success: true, User: toUserResponse(user)})
}
