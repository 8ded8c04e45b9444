package handlers

import (
	"codecalm/internal/common"
	"codecalm/internal/repository/db"
	"codecalm/internal/service/analytics"
	conversationService "codecalm/internal/service/conversation"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type CreateConversationRequest struct {
	AssistantType string `json:"assistant_type"`
	Title         string `json:"title,omitempty"`
}

type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Tokens  int    `json:"tokens,omitempty"`
}

type RoutingLogRequest struct {
	MessageID     *int64  `json:"message_id,omitempty"`
	SelectedModel string  `json:"selected_model"`
	QueryType     string  `json:"query_type"`
	LatencyMS     int64   `json:"latency_ms"`
	CostEstimate  float64 `json:"cost_estimate"`
	Reasoning     string  `json:"reasoning"`
	Query         string  `json:"query,omitempty"`
}

type MessageData struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Tokens    int       `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationInfo struct {
	ID            int64         `json:"id"`
	AssistantType string        `json:"assistant_type"`
	Title         string        `json:"title"`
	MessageCount  int           `json:"message_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Messages      []MessageData `json:"messages,omitempty"`
}

type ConversationResponse struct {
	Success      bool             `json:"success"`
	Conversation ConversationInfo `json:"conversation"`
}

type ConversationsResponse struct {
	Success       bool               `json:"success"`
	Conversations []ConversationInfo `json:"conversations"`
}

type AppendMessageResponse struct {
	Success bool        `json:"success"`
	Message MessageData `json:"message"`
}

type RoutingLogData struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	MessageID      *int64    `json:"message_id,omitempty"`
	SelectedModel  string    `json:"selected_model"`
	QueryType      string    `json:"query_type"`
	LatencyMS      int64     `json:"latency_ms"`
	CostEstimate   float64   `json:"cost_estimate"`
	Reasoning      string    `json:"reasoning"`
	Query          string    `json:"query"`
	Tokens         int       `json:"tokens"`
	CreatedAt      time.Time `json:"created_at"`
}

type RoutingLogResponse struct {
	Success    bool           `json:"success"`
	RoutingLog RoutingLogData `json:"routing_log"`
}

type RoutingAnalyticsResponse struct {
	Success bool              `json:"success"`
	Summary analytics.Summary `json:"summary"`
	Logs    []RoutingLogData  `json:"logs"`
}

func toMessageData(m db.Message) MessageData {
	return MessageData{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Model:     m.Model,
		Tokens:    m.Tokens,
		CreatedAt: m.CreatedAt,
	}
}

func toConversationInfo(c *db.Conversation) ConversationInfo {
	info := ConversationInfo{
		ID:            c.ID,
		AssistantType: c.AssistantType,
		Title:         c.Title,
		MessageCount:  c.MessageCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	for _, m := range c.Messages {
		info.Messages = append(info.Messages, toMessageData(m))
	}
	return info
}

func toRoutingLogData(l db.RoutingLog) RoutingLogData {
	return RoutingLogData{
		ID:             l.ID,
		ConversationID: l.ConversationID,
		MessageID:      l.MessageID,
		SelectedModel:  l.SelectedModel,
		QueryType:      l.QueryType,
		LatencyMS:      l.LatencyMS,
		CostEstimate:   l.CostEstimate,
		Reasoning:      l.Reasoning,
		Query:          l.Query,
		Tokens:         l.Tokens,
		CreatedAt:      l.CreatedAt,
	}
}

// ConversationHandlers serves conversation CRUD and routing analytics
type ConversationHandlers struct {
	conversations *conversationService.ConversationService
}

func NewConversationHandlers(conversations *conversationService.ConversationService) *ConversationHandlers {
	return &ConversationHandlers{conversations: conversations}
}

// CreateConversationHandler starts an empty conversation
func (h *ConversationHandlers) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req CreateConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	conv, err := h.conversations.CreateConversation(r.Context(), userID, req.AssistantType, req.Title)
	if err != nil {
		sendServiceError(w, r, "Error creating conversation", err)
		return
	}

	sendJSON(w, http.StatusCreated, ConversationResponse{Success: true, Conversation: toConversationInfo(conv)})
}

// GetConversationsHandler lists the caller's conversations
func (h *ConversationHandlers) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	q := r.URL.Query()

	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	convs, err := h.conversations.GetUserConversations(r.Context(), userID, q.Get("assistant_type"), limit, q.Get("include_messages") == "true")
	if err != nil {
		sendServiceError(w, r, "Error retrieving conversations", err)
		return
	}

	resp := ConversationsResponse{Success: true, Conversations: make([]ConversationInfo, 0, len(convs))}
	for i := range convs {
		resp.Conversations = append(resp.Conversations, toConversationInfo(&convs[i]))
	}
	sendJSON(w, http.StatusOK, resp)
}

// GetConversationHandler returns one conversation with its messages unless
// include_messages=false
func (h *ConversationHandlers) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	convID, err := pathID(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid conversation id", err)
		return
	}

	conv, err := h.conversations.GetConversation(r.Context(), userID, convID, r.URL.Query().Get("include_messages") != "false")
	if err != nil {
		sendServiceError(w, r, "Conversation not found", err)
		return
	}

	sendJSON(w, http.StatusOK, ConversationResponse{Success: true, Conversation: toConversationInfo(conv)})
}

// AppendMessageHandler adds a message to a conversation
func (h *ConversationHandlers) AppendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	convID, err := pathID(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid conversation id", err)
		return
	}

	var req AppendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	msg, err := h.conversations.AppendMessage(r.Context(), userID, convID, db.NewMessage{
		Role:    req.Role,
		Content: req.Content,
		Model:   req.Model,
		Tokens:  req.Tokens,
	})
	if err != nil {
		sendServiceError(w, r, "Error appending message", err)
		return
	}

	sendJSON(w, http.StatusCreated, AppendMessageResponse{Success: true, Message: toMessageData(*msg)})
}

// DeleteConversationHandler soft-deletes a conversation
func (h *ConversationHandlers) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	convID, err := pathID(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid conversation id", err)
		return
	}

	if err := h.conversations.DeleteConversation(r.Context(), userID, convID); err != nil {
		sendServiceError(w, r, "Error deleting conversation", err)
		return
	}

	sendJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Conversation deleted successfully"})
}

// CreateRoutingLogHandler records a client-side routing decision
func (h *ConversationHandlers) CreateRoutingLogHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	convID, err := pathID(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid conversation id", err)
		return
	}

	var req RoutingLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	log, err := h.conversations.LogRouting(r.Context(), userID, convID, conversationService.RoutingLogInput{
		MessageID:     req.MessageID,
		SelectedModel: req.SelectedModel,
		QueryType:     req.QueryType,
		LatencyMS:     req.LatencyMS,
		CostEstimate:  req.CostEstimate,
		Reasoning:     req.Reasoning,
		Query:         req.Query,
	})
	if err != nil {
		sendServiceError(w, r, "Error logging routing decision", err)
		return
	}

	sendJSON(w, http.StatusCreated, RoutingLogResponse{Success: true, RoutingLog: toRoutingLogData(*log)})
}

// RoutingAnalyticsHandler summarizes the caller's persisted routing logs
func (h *ConversationHandlers) RoutingAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	q := r.URL.Query()

	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	var convID *int64
	if raw := q.Get("conversation_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			sendError(w, http.StatusBadRequest, "Invalid conversation id", fmt.Errorf("%w: conversation_id %q", common.ErrValidation, raw))
			return
		}
		convID = &id
	}

	res, err := h.conversations.RoutingAnalytics(r.Context(), userID, convID, limit)
	if err != nil {
		sendServiceError(w, r, "Error retrieving routing analytics", err)
		return
	}

	resp := RoutingAnalyticsResponse{Success: true, Summary: res.Summary, Logs: make([]RoutingLogData, 0, len(res.Logs))}
	for _, l := range res.Logs {
		resp.Logs = append(resp.Logs, toRoutingLogData(l))
	}
	sendJSON(w, http.StatusOK, resp)
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", common.ErrValidation, raw)
	}
	return id, nil
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", common.ErrValidation, raw)
	}
	return v, nil
}
