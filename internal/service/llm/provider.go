package llm

import "context"

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral chat completion request. Zero values fall back to the
// provider's configured defaults.
type Request struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

// Response is a provider-neutral completion. TotalTokens is 0 when the provider did not
// report usage.
type Response struct {
	Content     string
	TotalTokens int
	Model       string
}

// Provider is a single hosted or local LLM endpoint.
type Provider interface {
	Name() string
	Model() string
	// Complete blocks until the provider answers or its configured timeout elapses.
	// Every failure is returned as *ProviderError.
	Complete(ctx context.Context, req *Request) (*Response, error)
}
