package llm

import (
	"bytes"
	"codecalm/internal/config"
	"codecalm/internal/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider calls the OpenRouter chat completions API directly
type OpenRouterProvider struct {
	config     config.ProviderConfig
	endpoint   string
	httpClient *http.Client
}

// NewOpenRouterProvider creates a provider for one OpenRouter-hosted model. A nil
// httpClient gets a client bounded by the provider timeout.
func NewOpenRouterProvider(cfg config.ProviderConfig, httpClient *http.Client) *OpenRouterProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return &OpenRouterProvider{
		config:     cfg,
		endpoint:   strings.TrimRight(baseURL, "/") + "/chat/completions",
		httpClient: httpClient,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type responseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage *responseUsage `json:"usage,omitempty"`
}

func (p *OpenRouterProvider) Name() string  { return p.config.Name }
func (p *OpenRouterProvider) Model() string { return p.config.Model }

// Complete sends a non-streaming chat completion request
func (p *OpenRouterProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p.config.APIKey == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrMissingAPIKey}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	reqBody := chatRequest{
		Model:       p.config.Model,
		Messages:    req.Messages,
		Temperature: temperatureOr(req.Temperature, p.config.Temperature),
		MaxTokens:   maxTokensOr(req.MaxTokens, p.config.MaxTokens),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error marshaling request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error creating request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	httpReq.Header.Set("HTTP-Referer", "http://localhost:8080")
	httpReq.Header.Set("X-Title", "CodeCalm")

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"provider":      p.Name(),
		"model":         p.config.Model,
		"message_count": len(req.Messages),
	}).Info("Calling OpenRouter API")

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error sending request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.FromContext(ctx).WithFields(logrus.Fields{
			"provider": p.Name(),
			"status":   resp.StatusCode,
			"body":     string(body),
		}).Debug("OpenRouter returned error status")
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error decoding response: %w", err))
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrEmptyResponse}
	}

	out := &Response{
		Content: chatResp.Choices[0].Message.Content,
		Model:   p.config.Model,
	}
	if chatResp.Model != "" {
		out.Model = chatResp.Model
	}
	if chatResp.Usage != nil {
		out.TotalTokens = chatResp.Usage.TotalTokens
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"provider":     p.Name(),
		"total_tokens": out.TotalTokens,
		"latency_ms":   time.Since(start).Milliseconds(),
	}).Info("OpenRouter response received")

	return out, nil
}

func temperatureOr(override *float64, def float64) float64 {
	if override != nil {
		return *override
	}
	return def
}

func maxTokensOr(override, def int) int {
	if override > 0 {
		return override
	}
	return def
}
