package router

import (
	"codecalm/internal/service/classifier"
	"codecalm/internal/service/llm"
)

// DefaultHistoryWindow is how many prior turns are replayed to the provider.
const DefaultHistoryWindow = 10

// SessionContext is what the persona rules derived from the latest user message.
type SessionContext struct {
	Mood       classifier.Mood `json:"mood,omitempty"`
	FocusAreas []string        `json:"focus_areas,omitempty"`
}

// AssistantSession is the per-request state of one assistant conversation. It is built
// fresh for every request from persisted or client-supplied history and is never shared.
type AssistantSession struct {
	// ConversationID is 0 for anonymous sessions
	ConversationID int64
	Category       classifier.Category
	Persona        Persona
	History        []llm.Message
	State          TeachingState
	Context        SessionContext
}

// NewAssistantSession keeps the last window user/assistant turns of history.
func NewAssistantSession(conversationID int64, category classifier.Category, history []llm.Message, state TeachingState, window int) *AssistantSession {
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	turns := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			turns = append(turns, m)
		}
	}
	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	return &AssistantSession{
		ConversationID: conversationID,
		Category:       category,
		Persona:        PersonaFor(category),
		History:        turns,
		State:          state,
	}
}

// UpdateContext applies the persona's detection rules to message.
func (s *AssistantSession) UpdateContext(message string) {
	if !s.Category.IsPersona() {
		return
	}
	s.Context.Mood = classifier.DetectMood(message)
	s.Context.FocusAreas = classifier.FocusAreas(s.Category, message)
}

// BuildMessages assembles system prompt, replayed history and the new user message.
func (s *AssistantSession) BuildMessages(message string, threshold int) []llm.Message {
	msgs := make([]llm.Message, 0, len(s.History)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.Persona.SystemPrompt(s, threshold)})
	msgs = append(msgs, s.History...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
	return msgs
}
