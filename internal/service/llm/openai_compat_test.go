package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "llama-3.3-70b-versatile",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hello from groq"}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 7, "total_tokens": 17}
}`

func TestOpenAICompatProvider_Complete_Success(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("path = %q, want /openai/v1/chat/completions", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON))
	}))
	defer server.Close()

	p := NewOpenAICompatProvider(testProviderConfig("groq", server.URL+"/openai/v1"), nil)
	resp, err := p.Complete(context.Background(), &Request{Messages: []Message{
		{Role: RoleSystem, Content: "be kind"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "again"},
	}})
	if err != nil {
		t.Fatalf("Complete() error = %v, want nil", err)
	}

	if resp.Content != "Hello from groq" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello from groq")
	}
	if resp.TotalTokens != 17 {
		t.Errorf("TotalTokens = %d, want 17", resp.TotalTokens)
	}
	if msgs, _ := body["messages"].([]any); len(msgs) != 4 {
		t.Errorf("request messages = %v, want 4 entries", body["messages"])
	}
	if body["model"] != "test/model" {
		t.Errorf("request model = %v, want test/model", body["model"])
	}
}

func TestOpenAICompatProvider_Complete_ErrorStatusNoRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	p := NewOpenAICompatProvider(testProviderConfig("groq", server.URL), nil)
	_, err := p.Complete(context.Background(), &Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Complete() error = %v, want *ProviderError", err)
	}
	if pe.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", pe.StatusCode)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server called %d times, want 1", n)
	}
}

func TestOpenAICompatProvider_MissingAPIKey(t *testing.T) {
	cfg := testProviderConfig("groq", "http://127.0.0.1:1")
	cfg.APIKey = ""

	_, err := NewOpenAICompatProvider(cfg, nil).Complete(context.Background(), &Request{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Complete() error = %v, want ErrMissingAPIKey", err)
	}
}
