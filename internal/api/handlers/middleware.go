package handlers

import (
	"codecalm/internal/common"
	"codecalm/internal/config"
	"codecalm/internal/logger"
	authService "codecalm/internal/service/auth"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	tokenContextKey  contextKey = "session_token"

	requestIDHeader = "X-Request-ID"
)

// userIDFromContext returns the authenticated user id, or false for anonymous requests
func userIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// enableCORS answers preflight requests and sets CORS headers on the rest
func enableCORS(allowedOrigin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags every request with an id and logs its outcome
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := logger.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.FromContext(ctx).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	})
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// present reports whether any Authorization header was sent.
func bearerToken(r *http.Request) (token string, present bool, err error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", true, errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// Authenticator resolves bearer tokens to users
type Authenticator struct {
	auth *authService.AuthService
}

func NewAuthenticator(auth *authService.AuthService) *Authenticator {
	return &Authenticator{auth: auth}
}

// RequireAuth rejects requests without a valid session
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return a.authenticate(next, false)
}

// OptionalAuth lets anonymous requests through but still rejects invalid tokens
func (a *Authenticator) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return a.authenticate(next, true)
}

func (a *Authenticator) authenticate(next http.HandlerFunc, allowAnonymous bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearerToken(r)
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Invalid authorization header", err)
			return
		}
		if !present {
			if allowAnonymous {
				next.ServeHTTP(w, r)
				return
			}
			sendError(w, http.StatusUnauthorized, "Missing authorization header", nil)
			return
		}

		userID, err := a.auth.Validate(r.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				sendError(w, http.StatusUnauthorized, "Invalid or expired session", err)
				return
			}
			sendServiceError(w, r, "Error validating session", err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RateLimiter bounds requests per client IP with a token bucket per client
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = 1000
	}
	ttl := cfg.ClientTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	burst := cfg.RequestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, ttl),
		rate:     rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:    burst,
	}
}

// Allow reports whether key may make another request now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// Limit wraps next with the per-client limit
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			logger.FromContext(r.Context()).WithField("client_ip", ip).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			sendError(w, http.StatusTooManyRequests, "Too many requests, please slow down", nil)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// clientIP extracts the client IP, trusting proxy headers first
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
