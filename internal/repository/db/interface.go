package db

import "context"

// Database defines the interface for all database operations.
// Every conversation-scoped call takes the caller's user id and treats foreign-owned or
// soft-deleted conversations as not found.
type Database interface {
	// Users
	CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// Sessions
	CreateSession(ctx context.Context, s *Session) (*Session, error)
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	RevokeSession(ctx context.Context, token string) error

	// Conversations
	CreateConversation(ctx context.Context, userID int64, assistantType, title string) (*Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID int64) (*Conversation, error)
	ListConversations(ctx context.Context, userID int64, filter ListConversationsFilter) ([]Conversation, error)
	SoftDeleteConversation(ctx context.Context, userID, conversationID int64) error

	// Messages
	AppendMessage(ctx context.Context, userID, conversationID int64, msg NewMessage) (*Message, error)
	GetMessages(ctx context.Context, conversationID int64) ([]Message, error)
	GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error)

	// Turns and routing logs
	RecordTurn(ctx context.Context, turn TurnRecord) (*TurnResult, error)
	CreateRoutingLog(ctx context.Context, userID int64, log RoutingLog) (*RoutingLog, error)
	ListRoutingLogs(ctx context.Context, filter RoutingLogFilter) ([]RoutingLog, error)
}
