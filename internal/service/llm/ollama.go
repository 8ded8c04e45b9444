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
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// reasoning models wrap their scratchpad in think tags
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// OllamaProvider calls a local Ollama server. Local models are slow, so it is usually
// configured with a much longer timeout than hosted providers.
type OllamaProvider struct {
	config     config.ProviderConfig
	endpoint   string
	httpClient *http.Client
}

func NewOllamaProvider(cfg config.ProviderConfig, httpClient *http.Client) *OllamaProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaProvider{
		config:     cfg,
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/chat",
		httpClient: httpClient,
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func (p *OllamaProvider) Name() string  { return p.config.Name }
func (p *OllamaProvider) Model() string { return p.config.Model }

func (p *OllamaProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	jsonData, err := json.Marshal(ollamaRequest{
		Model:    p.config.Model,
		Messages: req.Messages,
		Options: ollamaOptions{
			Temperature: temperatureOr(req.Temperature, p.config.Temperature),
			NumPredict:  maxTokensOr(req.MaxTokens, p.config.MaxTokens),
		},
	})
	if err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error marshaling request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"provider": p.Name(),
		"model":    p.config.Model,
	}).Info("Calling Ollama")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, wrapError(p.Name(), fmt.Errorf("error decoding response: %w", err))
	}

	content := strings.TrimSpace(thinkBlock.ReplaceAllString(out.Message.Content, ""))
	if content == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrEmptyResponse}
	}

	return &Response{
		Content:     content,
		TotalTokens: out.PromptEvalCount + out.EvalCount,
		Model:       p.config.Model,
	}, nil
}
