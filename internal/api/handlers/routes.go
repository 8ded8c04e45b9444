package handlers

import (
	"codecalm/internal/app"
	authService "codecalm/internal/service/auth"
	chatService "codecalm/internal/service/chat"
	conversationService "codecalm/internal/service/conversation"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRouter wires every service and endpoint onto a Go 1.22 ServeMux
func NewRouter(config *app.Config, chatOpts ...chatService.Option) http.Handler {
	now := config.Now
	if now == nil {
		now = time.Now
	}

	auth := authService.NewAuthService(
		config.DB,
		config.AppConfig.Auth.SessionTTL,
		config.AppConfig.Auth.BcryptCost,
		authService.WithClock(now),
	)
	authenticator := NewAuthenticator(auth)
	limiter := NewRateLimiter(config.AppConfig.RateLimit)

	authHandlers := NewAuthHandlers(auth)
	chatHandlers := NewChatHandlers(chatService.NewChatService(config, chatOpts...), now)
	conversationHandlers := NewConversationHandlers(conversationService.NewConversationService(config.DB, config.Analytics))

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: now()})
	})
	mux.HandleFunc("POST /api/auth/register", authHandlers.RegisterHandler)
	mux.HandleFunc("POST /api/auth/login", authHandlers.LoginHandler)
	mux.HandleFunc("GET /api/codegent/stats", chatHandlers.StatsHandler)

	// Chat routes accept anonymous callers
	mux.HandleFunc("POST /api/codegent/chat", limiter.Limit(authenticator.OptionalAuth(chatHandlers.CodeGentChatHandler)))
	mux.HandleFunc("POST /api/agent/chat", limiter.Limit(authenticator.OptionalAuth(chatHandlers.AgentChatHandler)))

	// Protected routes
	mux.HandleFunc("POST /api/auth/logout", authenticator.RequireAuth(authHandlers.LogoutHandler))
	mux.HandleFunc("GET /api/auth/validate", authenticator.RequireAuth(authHandlers.ValidateHandler))
	mux.HandleFunc("GET /api/auth/profile", authenticator.RequireAuth(authHandlers.ProfileHandler))

	mux.HandleFunc("POST /api/conversations", authenticator.RequireAuth(conversationHandlers.CreateConversationHandler))
	mux.HandleFunc("GET /api/conversations", authenticator.RequireAuth(conversationHandlers.GetConversationsHandler))
	mux.HandleFunc("GET /api/conversations/{id}", authenticator.RequireAuth(conversationHandlers.GetConversationHandler))
	mux.HandleFunc("DELETE /api/conversations/{id}", authenticator.RequireAuth(conversationHandlers.DeleteConversationHandler))
	mux.HandleFunc("POST /api/conversations/{id}/messages", authenticator.RequireAuth(conversationHandlers.AppendMessageHandler))
	mux.HandleFunc("POST /api/conversations/{id}/routing-logs", authenticator.RequireAuth(conversationHandlers.CreateRoutingLogHandler))
	mux.HandleFunc("GET /api/analytics/routing", authenticator.RequireAuth(conversationHandlers.RoutingAnalyticsHandler))

	return requestLogger(enableCORS(config.AppConfig.Server.AllowedOrigin, mux))
}
