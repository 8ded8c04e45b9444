package testutil

import (
	"codecalm/internal/app"
	"codecalm/internal/config"
	"codecalm/internal/repository/db"
	"codecalm/internal/service/analytics"
	"codecalm/internal/service/llm"
	"context"
	"errors"
	"sync"
	"time"
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// User mocks
	CreateUserFunc     func(ctx context.Context, email, passwordHash, fullName, role string) (*db.User, error)
	GetUserByEmailFunc func(ctx context.Context, email string) (*db.User, error)
	GetUserByIDFunc    func(ctx context.Context, id int64) (*db.User, error)

	// Session mocks
	CreateSessionFunc     func(ctx context.Context, s *db.Session) (*db.Session, error)
	GetSessionByTokenFunc func(ctx context.Context, token string) (*db.Session, error)
	RevokeSessionFunc     func(ctx context.Context, token string) error

	// Conversation mocks
	CreateConversationFunc     func(ctx context.Context, userID int64, assistantType, title string) (*db.Conversation, error)
	GetConversationFunc        func(ctx context.Context, userID, conversationID int64) (*db.Conversation, error)
	ListConversationsFunc      func(ctx context.Context, userID int64, filter db.ListConversationsFilter) ([]db.Conversation, error)
	SoftDeleteConversationFunc func(ctx context.Context, userID, conversationID int64) error

	// Message mocks
	AppendMessageFunc     func(ctx context.Context, userID, conversationID int64, msg db.NewMessage) (*db.Message, error)
	GetMessagesFunc       func(ctx context.Context, conversationID int64) ([]db.Message, error)
	GetRecentMessagesFunc func(ctx context.Context, conversationID int64, limit int) ([]db.Message, error)

	// Turn and routing log mocks
	RecordTurnFunc       func(ctx context.Context, turn db.TurnRecord) (*db.TurnResult, error)
	CreateRoutingLogFunc func(ctx context.Context, userID int64, log db.RoutingLog) (*db.RoutingLog, error)
	ListRoutingLogsFunc  func(ctx context.Context, filter db.RoutingLogFilter) ([]db.RoutingLog, error)
}

var _ db.Database = (*MockDatabase)(nil)

// User methods
func (m *MockDatabase) CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, email, passwordHash, fullName, role)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetUserByID(ctx context.Context, id int64) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

// Session methods
func (m *MockDatabase) CreateSession(ctx context.Context, s *db.Session) (*db.Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, s)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetSessionByToken(ctx context.Context, token string) (*db.Session, error) {
	if m.GetSessionByTokenFunc != nil {
		return m.GetSessionByTokenFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) RevokeSession(ctx context.Context, token string) error {
	if m.RevokeSessionFunc != nil {
		return m.RevokeSessionFunc(ctx, token)
	}
	return errors.New("not implemented")
}

// Conversation methods
func (m *MockDatabase) CreateConversation(ctx context.Context, userID int64, assistantType, title string) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, userID, assistantType, title)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetConversation(ctx context.Context, userID, conversationID int64) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, userID, conversationID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) ListConversations(ctx context.Context, userID int64, filter db.ListConversationsFilter) ([]db.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, userID, filter)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) SoftDeleteConversation(ctx context.Context, userID, conversationID int64) error {
	if m.SoftDeleteConversationFunc != nil {
		return m.SoftDeleteConversationFunc(ctx, userID, conversationID)
	}
	return errors.New("not implemented")
}

// Message methods
func (m *MockDatabase) AppendMessage(ctx context.Context, userID, conversationID int64, msg db.NewMessage) (*db.Message, error) {
	if m.AppendMessageFunc != nil {
		return m.AppendMessageFunc(ctx, userID, conversationID, msg)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetMessages(ctx context.Context, conversationID int64) ([]db.Message, error) {
	if m.GetMessagesFunc != nil {
		return m.GetMessagesFunc(ctx, conversationID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]db.Message, error) {
	if m.GetRecentMessagesFunc != nil {
		return m.GetRecentMessagesFunc(ctx, conversationID, limit)
	}
	return nil, errors.New("not implemented")
}

// Turn and routing log methods
func (m *MockDatabase) RecordTurn(ctx context.Context, turn db.TurnRecord) (*db.TurnResult, error) {
	if m.RecordTurnFunc != nil {
		return m.RecordTurnFunc(ctx, turn)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) CreateRoutingLog(ctx context.Context, userID int64, log db.RoutingLog) (*db.RoutingLog, error) {
	if m.CreateRoutingLogFunc != nil {
		return m.CreateRoutingLogFunc(ctx, userID, log)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) ListRoutingLogs(ctx context.Context, filter db.RoutingLogFilter) ([]db.RoutingLog, error) {
	if m.ListRoutingLogsFunc != nil {
		return m.ListRoutingLogsFunc(ctx, filter)
	}
	return nil, errors.New("not implemented")
}

// MockProvider is a mock implementation of llm.Provider for testing
type MockProvider struct {
	NameValue    string
	ModelValue   string
	CompleteFunc func(ctx context.Context, req *llm.Request) (*llm.Response, error)

	mu       sync.Mutex
	requests []*llm.Request
}

var _ llm.Provider = (*MockProvider)(nil)

func (m *MockProvider) Name() string  { return m.NameValue }
func (m *MockProvider) Model() string { return m.ModelValue }

func (m *MockProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return nil, &llm.ProviderError{Provider: m.NameValue, Err: errors.New("not implemented")}
}

// Calls returns how many times Complete was invoked
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil
func (m *MockProvider) LastRequest() *llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// ReplyProvider returns a provider that always answers content with tokens usage
func ReplyProvider(name, content string, tokens int) *MockProvider {
	return &MockProvider{
		NameValue:  name,
		ModelValue: name + "-model",
		CompleteFunc: func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			return &llm.Response{Content: content, TotalTokens: tokens, Model: name + "-model"}, nil
		},
	}
}

// FailingProvider returns a provider that always fails with status
func FailingProvider(name string, status int) *MockProvider {
	return &MockProvider{
		NameValue:  name,
		ModelValue: name + "-model",
		CompleteFunc: func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			return nil, &llm.ProviderError{Provider: name, StatusCode: status, Err: errors.New("upstream failure")}
		},
	}
}

// NewRegistry registers providers under their names with fallback as the secondary
func NewRegistry(fallback string, providers ...llm.Provider) *llm.Registry {
	reg := llm.NewRegistry(fallback)
	for _, p := range providers {
		reg.Register(p, 0)
	}
	return reg
}

// FixedClock returns a clock frozen at t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// NewTestConfig creates a test app config with the given database and providers
func NewTestConfig(database db.Database, providers *llm.Registry) *app.Config {
	appConfig := &config.AppConfig{
		Server: config.ServerConfig{Port: "8080", AllowedOrigin: "*"},
		Auth: config.AuthConfig{
			SessionTTL: 30 * 24 * time.Hour,
			BcryptCost: 4,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerMinute: 600,
			MaxClients:        100,
			ClientTTL:         time.Minute,
		},
		Chat: config.ChatConfig{
			HistoryWindow:        10,
			TeachingThreshold:    3,
			MotivationalFactRate: 0,
			RecentReasons:        20,
		},
		Providers: &config.ProvidersConfig{Fallback: "groq"},
	}
	if providers == nil {
		providers = llm.NewRegistry("groq")
	}
	return app.NewConfig(database, appConfig, providers, analytics.NewAggregator(analytics.WithRecentReasons(appConfig.Chat.RecentReasons)))
}
