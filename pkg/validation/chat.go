package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds a single chat message, in characters
const MaxMessageLength = 8000

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct {
	categories     map[string]bool
	assistantTypes map[string]bool
}

// NewChatRequestValidator creates a new ChatRequestValidator accepting the given
// routing categories and conversation assistant types
func NewChatRequestValidator(categories, assistantTypes []string) *ChatRequestValidator {
	v := &ChatRequestValidator{
		categories:     make(map[string]bool, len(categories)),
		assistantTypes: make(map[string]bool, len(assistantTypes)),
	}
	for _, c := range categories {
		v.categories[c] = true
	}
	for _, t := range assistantTypes {
		v.assistantTypes[t] = true
	}
	return v
}

// ValidateMessage validates a chat message
func (v *ChatRequestValidator) ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("message cannot be empty")
	}

	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return fmt.Errorf("message must be at most %d characters long, got %d", MaxMessageLength, n)
	}
	return nil
}

// ValidateCategory validates an explicit routing category. Empty means classify.
func (v *ChatRequestValidator) ValidateCategory(category string) error {
	if category == "" {
		return nil
	}

	if !v.categories[category] {
		return fmt.Errorf("unknown category: %s", category)
	}
	return nil
}

// ValidateAssistantType validates a conversation assistant type
func (v *ChatRequestValidator) ValidateAssistantType(assistantType string) error {
	if assistantType == "" {
		return errors.New("assistant_type cannot be empty")
	}

	if !v.assistantTypes[assistantType] {
		return fmt.Errorf("unknown assistant_type: %s", assistantType)
	}
	return nil
}

// ValidateMessageRole validates the sender role of a stored message
func (v *ChatRequestValidator) ValidateMessageRole(role string) error {
	switch role {
	case "user", "assistant", "system":
		return nil
	}
	return fmt.Errorf("role must be one of: user, assistant, system; got %s", role)
}

// ValidateTitle validates a conversation title. Empty means the default title.
func (v *ChatRequestValidator) ValidateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n > 200 {
		return fmt.Errorf("title must be at most 200 characters long, got %d", n)
	}
	return nil
}

// ValidateLimit validates a page size. Zero means the default.
func (v *ChatRequestValidator) ValidateLimit(limit, max int) error {
	if limit < 0 || limit > max {
		return fmt.Errorf("limit must be between 0 and %d, got %d", max, limit)
	}
	return nil
}

// ValidateChatRequest validates a complete chat request
func (v *ChatRequestValidator) ValidateChatRequest(message, category string) error {
	if err := v.ValidateMessage(message); err != nil {
		return err
	}

	if err := v.ValidateCategory(category); err != nil {
		return err
	}

	return nil
}
