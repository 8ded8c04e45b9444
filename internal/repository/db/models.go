package db

import "time"

// Roles a user can register with
const (
	UserRoleStudent      = "student"
	UserRoleParent       = "parent"
	UserRoleProfessional = "professional"
)

// Message senders
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Assistant types a conversation can be filed under
const (
	AssistantCodeGent     = "codegent"
	AssistantMental       = "mental"
	AssistantStudent      = "student"
	AssistantParent       = "parent"
	AssistantProfessional = "professional"
	AssistantFitness      = "fitness"
	AssistantWeatherFood  = "weather_food"
	AssistantZen          = "zen"
)

// AssistantTypes lists every valid conversation assistant type.
var AssistantTypes = []string{
	AssistantCodeGent, AssistantMental, AssistantStudent, AssistantParent,
	AssistantProfessional, AssistantFitness, AssistantWeatherFood, AssistantZen,
}

// User represents a user in the database
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a bearer credential issued at login
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// IsValid reports whether the session can still authenticate at now. Revoked and
// expired sessions never become valid again.
func (s *Session) IsValid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Conversation represents a conversation in the database
type Conversation struct {
	ID            int64
	UserID        int64
	AssistantType string
	Title         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
	// MessageCount is filled by list queries only
	MessageCount int
	Messages     []Message
}

// Message represents one turn in a conversation
type Message struct {
	ID             int64
	ConversationID int64
	Role           string
	Content        string
	Model          string
	Tokens         int
	CreatedAt      time.Time
	DeletedAt      *time.Time
}

// NewMessage is the input for appending a message
type NewMessage struct {
	Role    string
	Content string
	Model   string
	Tokens  int
}

// RoutingLog records one routing decision. Rows are append-only.
type RoutingLog struct {
	ID             int64
	ConversationID int64
	MessageID      *int64
	SelectedModel  string
	QueryType      string
	LatencyMS      int64
	CostEstimate   float64
	Reasoning      string
	// Query is the start of the user message, kept for display
	Query     string
	CreatedAt time.Time
	// Tokens is joined from the referenced message on reads
	Tokens int
}

// ListConversationsFilter narrows ListConversations
type ListConversationsFilter struct {
	AssistantType   string
	Limit           int
	IncludeMessages bool
}

// RoutingLogFilter narrows ListRoutingLogs. A nil UserID lists every user's logs.
type RoutingLogFilter struct {
	UserID         *int64
	ConversationID *int64
	Limit          int
}

// TurnRecord is everything one chat turn writes. A nil ConversationID creates a new
// conversation with AssistantType and Title.
type TurnRecord struct {
	UserID         int64
	ConversationID *int64
	AssistantType  string
	Title          string
	UserMessage    NewMessage
	Reply          NewMessage
	Routing        RoutingLog
}

// TurnResult holds the rows created by RecordTurn
type TurnResult struct {
	ConversationID int64
	UserMessage    Message
	Reply          Message
	RoutingLogID   int64
}
