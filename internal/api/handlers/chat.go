package handlers

import (
	"codecalm/internal/common"
	"codecalm/internal/logger"
	"codecalm/internal/service/analytics"
	chatService "codecalm/internal/service/chat"
	"codecalm/internal/service/llm"
	"codecalm/internal/service/router"
	"errors"
	"net/http"
	"time"
)

// Request/Response types

type CodeGentChatRequest struct {
	Message        string                `json:"message"`
	Category       string                `json:"category,omitempty"`
	ConversationID *int64                `json:"conversation_id,omitempty"`
	History        []llm.Message         `json:"history,omitempty"`
	State          *router.TeachingState `json:"state,omitempty"`
}

type AgentChatRequest struct {
	Message        string `json:"message"`
	AgentType      string `json:"agent_type,omitempty"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
}

type ChatResponse struct {
	Success          bool                 `json:"success"`
	Response         string               `json:"response"`
	CategoryUsed     string               `json:"category_used"`
	AgentType        string               `json:"agent_type,omitempty"`
	ModelUsed        string               `json:"model_used"`
	ProviderUsed     string               `json:"provider_used,omitempty"`
	Model            string               `json:"model,omitempty"`
	RoutingReason    string               `json:"routing_reason"`
	ClassifierReason string               `json:"classifier_reason,omitempty"`
	TokensUsed       int                  `json:"tokens_used"`
	LatencyMS        int64                `json:"latency_ms"`
	CostEstimate     float64              `json:"cost_estimate"`
	FellBack         bool                 `json:"fell_back"`
	Degraded         bool                 `json:"degraded"`
	Mood             string               `json:"mood,omitempty"`
	FocusAreas       []string             `json:"focus_areas,omitempty"`
	MotivationalFact string               `json:"motivational_fact,omitempty"`
	State            router.TeachingState `json:"state"`
	ConversationID   *int64               `json:"conversation_id"`
	MessageID        *int64               `json:"message_id,omitempty"`
	Error            string               `json:"error,omitempty"`
	Timestamp        time.Time            `json:"timestamp"`
}

type StatsResponse struct {
	Success   bool              `json:"success"`
	Summary   analytics.Summary `json:"summary"`
	Timestamp time.Time         `json:"timestamp"`
}

// ChatHandlers serves the coding tutor and companion chat endpoints
type ChatHandlers struct {
	chatService *chatService.ChatService
	now         func() time.Time
}

// NewChatHandlers creates a new ChatHandlers with service layer
func NewChatHandlers(chat *chatService.ChatService, now func() time.Time) *ChatHandlers {
	if now == nil {
		now = time.Now
	}
	return &ChatHandlers{chatService: chat, now: now}
}

// CodeGentChatHandler answers a coding tutor message, classifying it unless a category is given
func (ch *ChatHandlers) CodeGentChatHandler(w http.ResponseWriter, r *http.Request) {
	var req CodeGentChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	serviceReq := chatService.Request{
		Surface:        chatService.SurfaceCodeGent,
		Message:        req.Message,
		Category:       req.Category,
		ConversationID: req.ConversationID,
		History:        req.History,
	}
	if req.State != nil {
		serviceReq.State = *req.State
	}

	ch.respond(w, r, serviceReq)
}

// AgentChatHandler answers a companion persona message
func (ch *ChatHandlers) AgentChatHandler(w http.ResponseWriter, r *http.Request) {
	var req AgentChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ch.respond(w, r, chatService.Request{
		Surface:        chatService.SurfaceAgent,
		Message:        req.Message,
		Category:       req.AgentType,
		ConversationID: req.ConversationID,
	})
}

// StatsHandler returns the live routing distribution
func (ch *ChatHandlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, StatsResponse{
		Success:   true,
		Summary:   ch.chatService.Stats(),
		Timestamp: ch.now(),
	})
}

func (ch *ChatHandlers) respond(w http.ResponseWriter, r *http.Request, req chatService.Request) {
	if userID, ok := userIDFromContext(r.Context()); ok {
		req.UserID = &userID
	}

	resp, err := ch.chatService.Respond(r.Context(), req)
	if err != nil && (resp == nil || !errors.Is(err, common.ErrPersistence)) {
		sendServiceError(w, r, "Error processing message", err)
		return
	}

	body := ChatResponse{
		Success:          err == nil,
		Response:         resp.Response,
		CategoryUsed:     string(resp.CategoryUsed),
		ModelUsed:        resp.Provider,
		ProviderUsed:     resp.ProviderUsed,
		Model:            resp.Model,
		RoutingReason:    resp.Reasoning,
		ClassifierReason: resp.ClassifierReason,
		TokensUsed:       resp.TokensUsed,
		LatencyMS:        resp.LatencyMS,
		CostEstimate:     resp.CostEstimate,
		FellBack:         resp.FellBack,
		Degraded:         resp.Degraded,
		MotivationalFact: resp.MotivationalFact,
		State:            resp.State,
		ConversationID:   resp.ConversationID,
		MessageID:        resp.MessageID,
		FocusAreas:       resp.FocusAreas,
		Timestamp:        ch.now(),
	}
	if req.Surface == chatService.SurfaceAgent {
		body.AgentType = string(resp.CategoryUsed)
	}
	if resp.Mood != "" {
		body.Mood = string(resp.Mood)
	}

	if err != nil {
		// the reply was generated but the conversation could not be saved
		logger.FromContext(r.Context()).WithError(err).Error("Chat turn not persisted")
		body.Error = "Failed to save conversation"
		sendJSON(w, http.StatusInternalServerError, body)
		return
	}

	sendJSON(w, http.StatusOK, body)
}
