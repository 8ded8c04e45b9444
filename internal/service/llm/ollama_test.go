package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Complete(t *testing.T) {
	var got ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"model":"deepseek-r1:1.5b","message":{"role":"assistant","content":"<think>hmm\nlet me see</think>\nTry a base case."},"done":true,"prompt_eval_count":12,"eval_count":8}`))
	}))
	defer server.Close()

	cfg := testProviderConfig("ollama", server.URL)
	cfg.APIKey = ""
	resp, err := NewOllamaProvider(cfg, nil).Complete(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hint please"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v, want nil", err)
	}

	if resp.Content != "Try a base case." {
		t.Errorf("Content = %q, want think block stripped", resp.Content)
	}
	if resp.TotalTokens != 20 {
		t.Errorf("TotalTokens = %d, want 20", resp.TotalTokens)
	}
	if got.Stream {
		t.Error("request stream = true, want false")
	}
	if got.Options.NumPredict != 1500 {
		t.Errorf("num_predict = %d, want 1500", got.Options.NumPredict)
	}
}

func TestOllamaProvider_OnlyThinking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"<think>nothing</think>"},"done":true}`))
	}))
	defer server.Close()

	_, err := NewOllamaProvider(testProviderConfig("ollama", server.URL), nil).Complete(context.Background(), &Request{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Complete() error = %v, want ErrEmptyResponse", err)
	}
}
