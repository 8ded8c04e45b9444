package chat

import (
	"codecalm/internal/app"
	"codecalm/internal/common"
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	"codecalm/internal/service/analytics"
	"codecalm/internal/service/classifier"
	"codecalm/internal/service/conversation"
	"codecalm/internal/service/llm"
	"codecalm/internal/service/router"
	"codecalm/pkg/validation"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

// Surface is the chat entry point a request came through
type Surface string

const (
	// SurfaceCodeGent is the coding tutor: categories are classified from the message
	SurfaceCodeGent Surface = "codegent"
	// SurfaceAgent is the companion personas: the category is the requested agent type
	SurfaceAgent Surface = "agent"
)

var motivationalFacts = []string{
	"💡 Did you know? Solving just 2 problems per day means 60+ problems per month!",
	"🎯 Fun fact: Understanding the 'why' behind code is more valuable than memorizing syntax.",
	"🚀 Remember: Every expert programmer was once a beginner asking questions.",
	"📚 Tip: Teaching concepts back to the AI helps solidify your understanding!",
	"⚡ Insight: Breaking problems into smaller steps is how professionals code too.",
	"🧠 Pro tip: The best way to learn coding is by doing, not just reading!",
	"✨ Each bug you fix makes you a better developer!",
	"🔥 Consistency beats intensity - code a little every day!",
}

// RandomSource picks motivational facts. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// Request contains all the parameters needed to answer one chat turn
type Request struct {
	Surface Surface
	Message string
	// Category is an explicit routing category on the codegent surface and the agent
	// type on the agent surface. Empty means classify or default.
	Category       string
	ConversationID *int64
	// History is replayed when no conversation is referenced
	History []llm.Message
	State   router.TeachingState
	// UserID is nil for anonymous callers, whose turns are not persisted
	UserID *int64
}

// Response contains the answer to one chat turn
type Response struct {
	Response         string
	CategoryUsed     classifier.Category
	ClassifierReason string
	TokensUsed       int
	Reasoning        string
	Provider         string
	ProviderUsed     string
	Model            string
	LatencyMS        int64
	CostEstimate     float64
	FellBack         bool
	Degraded         bool
	ConversationID   *int64
	MessageID        *int64
	State            router.TeachingState
	Mood             classifier.Mood
	FocusAreas       []string
	MotivationalFact string
}

// ChatService handles the business logic for chat operations
type ChatService struct {
	db           db.Database
	config       *app.Config
	orchestrator *router.Orchestrator
	aggregator   *analytics.Aggregator
	validator    *validation.ChatRequestValidator
	rng          RandomSource
	now          func() time.Time
}

type Option func(*ChatService)

// WithRandom overrides the source used for motivational facts.
func WithRandom(r RandomSource) Option {
	return func(s *ChatService) { s.rng = r }
}

// NewChatService creates a new ChatService
func NewChatService(config *app.Config, opts ...Option) *ChatService {
	now := config.Now
	if now == nil {
		now = time.Now
	}

	var routeOverrides map[string]string
	if config.AppConfig.Providers != nil {
		routeOverrides = config.AppConfig.Providers.Routes
	}

	s := &ChatService{
		db:     config.DB,
		config: config,
		orchestrator: router.NewOrchestrator(
			config.Providers,
			router.WithRoutes(router.RoutesWith(routeOverrides)),
			router.WithTeachingThreshold(config.AppConfig.Chat.TeachingThreshold),
			router.WithClock(now),
		),
		aggregator: config.Analytics,
		validator:  conversation.NewValidator(),
		rng:        globalRand{},
		now:        now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond classifies, routes and answers one chat turn. Provider failures never surface
// as errors. A failed persistence write returns the generated Response together with an
// error wrapping common.ErrPersistence; the Response then carries no conversation id.
func (s *ChatService) Respond(ctx context.Context, req Request) (*Response, error) {
	if err := s.validator.ValidateMessage(req.Message); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	category, classifierReason, assistantType, err := s.resolveCategory(req)
	if err != nil {
		return nil, err
	}

	if req.ConversationID != nil && req.UserID == nil {
		return nil, fmt.Errorf("%w: conversation_id requires a session", common.ErrUnauthorized)
	}

	history := req.History
	if req.ConversationID != nil {
		conv, err := s.db.GetConversation(ctx, *req.UserID, *req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("conversation %d: %w", *req.ConversationID, err)
		}
		// a conversation only continues on the assistant it was filed under
		if conv.AssistantType != assistantType {
			return nil, fmt.Errorf("conversation %d: %s thread: %w", conv.ID, conv.AssistantType, common.ErrNotFound)
		}
		history, err = s.recentHistory(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
	}

	var convID int64
	if req.ConversationID != nil {
		convID = *req.ConversationID
	}
	sess := router.NewAssistantSession(convID, category, history, req.State, s.config.AppConfig.Chat.HistoryWindow)

	result := s.orchestrator.RouteAndRespond(ctx, sess, req.Message)

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"surface":    req.Surface,
		"category":   category,
		"provider":   result.Provider,
		"tokens":     result.TokensUsed,
		"latency_ms": result.LatencyMS,
		"fell_back":  result.FellBack,
		"degraded":   result.Degraded,
	})

	if s.aggregator != nil {
		s.aggregator.Record(analytics.Event{
			Provider:  result.Provider,
			QueryType: string(category),
			Query:     req.Message,
			Reasoning: result.Reasoning,
			Tokens:    result.TokensUsed,
			LatencyMS: result.LatencyMS,
			At:        s.now(),
		})
	}

	resp := &Response{
		Response:         result.Response,
		CategoryUsed:     category,
		ClassifierReason: classifierReason,
		TokensUsed:       result.TokensUsed,
		Reasoning:        result.Reasoning,
		Provider:         result.Provider,
		ProviderUsed:     result.ProviderUsed,
		Model:            result.Model,
		LatencyMS:        result.LatencyMS,
		CostEstimate:     result.CostEstimate,
		FellBack:         result.FellBack,
		Degraded:         result.Degraded,
		State:            req.State,
		Mood:             sess.Context.Mood,
		FocusAreas:       sess.Context.FocusAreas,
	}

	if !result.Degraded {
		resp.State = req.State.Advance()
	}

	if req.Surface == SurfaceCodeGent && s.rng.Float64() < s.config.AppConfig.Chat.MotivationalFactRate {
		resp.MotivationalFact = motivationalFacts[s.rng.IntN(len(motivationalFacts))]
	}

	if req.UserID == nil {
		log.Info("Chat turn answered")
		return resp, nil
	}

	turn, err := s.db.RecordTurn(ctx, db.TurnRecord{
		UserID:         *req.UserID,
		ConversationID: req.ConversationID,
		AssistantType:  assistantType,
		Title:          conversation.TitleFromMessage(req.Message),
		UserMessage:    db.NewMessage{Role: db.RoleUser, Content: req.Message},
		Reply: db.NewMessage{
			Role:    db.RoleAssistant,
			Content: result.Response,
			Model:   result.Model,
			Tokens:  result.TokensUsed,
		},
		Routing: db.RoutingLog{
			SelectedModel: result.Provider,
			QueryType:     string(category),
			LatencyMS:     result.LatencyMS,
			CostEstimate:  result.CostEstimate,
			Reasoning:     result.Reasoning,
			Query:         analytics.QueryPreview(req.Message),
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to persist chat turn")
		return resp, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	resp.ConversationID = &turn.ConversationID
	resp.MessageID = &turn.Reply.ID
	log.WithField("conversation_id", turn.ConversationID).Info("Chat turn answered")
	return resp, nil
}

// Stats returns the live routing aggregate
func (s *ChatService) Stats() analytics.Summary {
	if s.aggregator == nil {
		return analytics.Summary{Providers: map[string]analytics.ProviderSummary{}}
	}
	return s.aggregator.Summarize()
}

func (s *ChatService) resolveCategory(req Request) (classifier.Category, string, string, error) {
	switch req.Surface {
	case SurfaceAgent:
		c, ok := classifier.ParseCategory(req.Category)
		if !ok || !c.IsPersona() {
			c = classifier.CategoryStudent
		}
		return c, fmt.Sprintf("Agent type %s selected by caller", c), string(c), nil

	case SurfaceCodeGent, "":
		if req.Category == "" {
			c, reason := classifier.Classify(req.Message)
			return c, reason, db.AssistantCodeGent, nil
		}
		if err := s.validator.ValidateCategory(req.Category); err != nil {
			return "", "", "", fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		c, _ := classifier.ParseCategory(req.Category)
		assistantType := db.AssistantCodeGent
		if c.IsPersona() {
			assistantType = string(c)
		}
		return c, fmt.Sprintf("Category %s selected by caller", c), assistantType, nil
	}

	return "", "", "", fmt.Errorf("%w: unknown surface %q", common.ErrValidation, req.Surface)
}

func (s *ChatService) recentHistory(ctx context.Context, conversationID int64) ([]llm.Message, error) {
	window := s.config.AppConfig.Chat.HistoryWindow
	if window <= 0 {
		window = router.DefaultHistoryWindow
	}

	messages, err := s.db.GetRecentMessages(ctx, conversationID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve conversation history: %w", err)
	}

	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history, nil
}
