package conversation

import (
	"codecalm/internal/common"
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	"codecalm/internal/service/analytics"
	"codecalm/internal/service/classifier"
	"codecalm/pkg/validation"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultListLimit is the page size when the caller gives none
	DefaultListLimit = 10
	// MaxListLimit caps ListConversations
	MaxListLimit = 100
	// DefaultAnalyticsLimit is how many routing logs the analytics view reads by default
	DefaultAnalyticsLimit = 50
	// MaxAnalyticsLimit caps RoutingAnalytics
	MaxAnalyticsLimit = 1000

	titleRunes = 50
)

var assistantLabels = map[string]string{
	db.AssistantCodeGent:     "CodeGent",
	db.AssistantMental:       "Mental Health",
	db.AssistantStudent:      "Student",
	db.AssistantParent:       "Parent",
	db.AssistantProfessional: "Professional",
	db.AssistantFitness:      "Fitness",
	db.AssistantWeatherFood:  "Weather & Food",
	db.AssistantZen:          "Zen",
}

// RoutingLogInput is a client-submitted routing decision
type RoutingLogInput struct {
	MessageID     *int64
	SelectedModel string
	QueryType     string
	LatencyMS     int64
	CostEstimate  float64
	Reasoning     string
	Query         string
}

// RoutingAnalytics is the per-user view over persisted routing logs
type RoutingAnalytics struct {
	Summary analytics.Summary
	Logs    []db.RoutingLog
}

// ConversationService handles the business logic for conversation management
type ConversationService struct {
	db         db.Database
	aggregator *analytics.Aggregator
	validator  *validation.ChatRequestValidator
}

// NewConversationService creates a new ConversationService. aggregator may be nil.
func NewConversationService(database db.Database, aggregator *analytics.Aggregator) *ConversationService {
	return &ConversationService{
		db:         database,
		aggregator: aggregator,
		validator:  NewValidator(),
	}
}

// NewValidator returns a chat validator that knows every routing category and
// assistant type.
func NewValidator() *validation.ChatRequestValidator {
	categories := make([]string, 0, len(classifier.Categories()))
	for _, c := range classifier.Categories() {
		categories = append(categories, string(c))
	}
	return validation.NewChatRequestValidator(categories, db.AssistantTypes)
}

// DefaultTitle is the title of an explicitly created conversation with no title.
func DefaultTitle(assistantType string) string {
	label, ok := assistantLabels[assistantType]
	if !ok {
		label = assistantType
	}
	return fmt.Sprintf("New %s Chat", label)
}

// TitleFromMessage keeps the first 50 characters of message unchanged, marking
// truncation with "...".
func TitleFromMessage(message string) string {
	if utf8.RuneCountInString(message) <= titleRunes {
		return message
	}
	return string([]rune(message)[:titleRunes]) + "..."
}

// CreateConversation creates an empty conversation owned by userID
func (s *ConversationService) CreateConversation(ctx context.Context, userID int64, assistantType, title string) (*db.Conversation, error) {
	if err := s.validator.ValidateAssistantType(assistantType); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	title = strings.TrimSpace(title)
	if err := s.validator.ValidateTitle(title); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if title == "" {
		title = DefaultTitle(assistantType)
	}

	conv, err := s.db.CreateConversation(ctx, userID, assistantType, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"user_id":         userID,
		"conversation_id": conv.ID,
		"assistant_type":  assistantType,
	}).Info("Conversation created")

	return conv, nil
}

// GetUserConversations lists the user's live conversations, most recently updated first
func (s *ConversationService) GetUserConversations(ctx context.Context, userID int64, assistantType string, limit int, includeMessages bool) ([]db.Conversation, error) {
	if assistantType != "" {
		if err := s.validator.ValidateAssistantType(assistantType); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
	}
	if err := s.validator.ValidateLimit(limit, MaxListLimit); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if limit == 0 {
		limit = DefaultListLimit
	}

	conversations, err := s.db.ListConversations(ctx, userID, db.ListConversationsFilter{
		AssistantType:   assistantType,
		Limit:           limit,
		IncludeMessages: includeMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve conversations: %w", err)
	}

	return conversations, nil
}

// GetConversation returns a live conversation owned by userID, with its messages in
// creation order when includeMessages is set
func (s *ConversationService) GetConversation(ctx context.Context, userID, conversationID int64, includeMessages bool) (*db.Conversation, error) {
	conv, err := s.db.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation %d: %w", conversationID, err)
	}

	if includeMessages {
		messages, err := s.db.GetMessages(ctx, conversationID)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve messages: %w", err)
		}
		conv.Messages = messages
		conv.MessageCount = len(messages)
	}

	return conv, nil
}

// AppendMessage adds one message to a live conversation owned by userID
func (s *ConversationService) AppendMessage(ctx context.Context, userID, conversationID int64, msg db.NewMessage) (*db.Message, error) {
	if err := s.validator.ValidateMessageRole(msg.Role); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := s.validator.ValidateMessage(msg.Content); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if msg.Tokens < 0 {
		return nil, fmt.Errorf("%w: tokens cannot be negative", common.ErrValidation)
	}

	message, err := s.db.AppendMessage(ctx, userID, conversationID, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	return message, nil
}

// DeleteConversation soft-deletes a conversation if the user owns it
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID int64) error {
	if err := s.db.SoftDeleteConversation(ctx, userID, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"user_id":         userID,
		"conversation_id": conversationID,
	}).Info("Conversation deleted")

	return nil
}

// LogRouting persists a routing decision for a conversation owned by userID and counts
// it in the live aggregate
func (s *ConversationService) LogRouting(ctx context.Context, userID, conversationID int64, in RoutingLogInput) (*db.RoutingLog, error) {
	if strings.TrimSpace(in.SelectedModel) == "" {
		return nil, fmt.Errorf("%w: selected_model cannot be empty", common.ErrValidation)
	}
	if in.LatencyMS < 0 || in.CostEstimate < 0 {
		return nil, fmt.Errorf("%w: latency and cost cannot be negative", common.ErrValidation)
	}

	log, err := s.db.CreateRoutingLog(ctx, userID, db.RoutingLog{
		ConversationID: conversationID,
		MessageID:      in.MessageID,
		SelectedModel:  in.SelectedModel,
		QueryType:      in.QueryType,
		LatencyMS:      in.LatencyMS,
		CostEstimate:   in.CostEstimate,
		Reasoning:      in.Reasoning,
		Query:          analytics.QueryPreview(in.Query),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log routing decision: %w", err)
	}

	if s.aggregator != nil {
		s.aggregator.Record(analytics.EventFromLog(*log))
	}

	return log, nil
}

// RoutingAnalytics summarizes the user's persisted routing logs, optionally narrowed to
// one conversation. The newest limit logs are returned alongside the summary.
func (s *ConversationService) RoutingAnalytics(ctx context.Context, userID int64, conversationID *int64, limit int) (*RoutingAnalytics, error) {
	if err := s.validator.ValidateLimit(limit, MaxAnalyticsLimit); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if limit == 0 {
		limit = DefaultAnalyticsLimit
	}

	if conversationID != nil {
		if _, err := s.db.GetConversation(ctx, userID, *conversationID); err != nil {
			return nil, fmt.Errorf("conversation %d: %w", *conversationID, err)
		}
	}

	filter := db.RoutingLogFilter{UserID: &userID, ConversationID: conversationID}

	// the summary covers every matching log; limit only bounds the returned list
	all, err := s.db.ListRoutingLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve routing logs: %w", err)
	}

	filter.Limit = limit
	logs, err := s.db.ListRoutingLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve routing logs: %w", err)
	}

	return &RoutingAnalytics{
		Summary: analytics.SummarizeEvents(analytics.EventsFromLogs(all)),
		Logs:    logs,
	}, nil
}
