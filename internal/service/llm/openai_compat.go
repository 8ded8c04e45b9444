package llm

import (
	"codecalm/internal/config"
	"codecalm/internal/logger"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// OpenAICompatProvider talks to any OpenAI-compatible endpoint (Groq, vLLM, OpenAI itself)
// through the official SDK.
type OpenAICompatProvider struct {
	config config.ProviderConfig
	client openai.Client
}

// NewOpenAICompatProvider creates a provider for cfg. SDK retries are disabled; the
// router owns the fallback policy.
func NewOpenAICompatProvider(cfg config.ProviderConfig, httpClient *http.Client) *OpenAICompatProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	return &OpenAICompatProvider{
		config: cfg,
		client: openai.NewClient(opts...),
	}
}

func (p *OpenAICompatProvider) Name() string  { return p.config.Name }
func (p *OpenAICompatProvider) Model() string { return p.config.Model }

// Complete sends a chat completion through the SDK
func (p *OpenAICompatProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p.config.APIKey == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrMissingAPIKey}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.config.Model),
		Messages:    toSDKMessages(req.Messages),
		Temperature: openai.Float(temperatureOr(req.Temperature, p.config.Temperature)),
		MaxTokens:   openai.Int(int64(maxTokensOr(req.MaxTokens, p.config.MaxTokens))),
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"provider":      p.Name(),
		"model":         p.config.Model,
		"message_count": len(req.Messages),
	}).Info("Calling OpenAI-compatible API")

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Provider: p.Name(), StatusCode: apiErr.StatusCode, Err: fmt.Errorf("api error: %w", err)}
		}
		return nil, wrapError(p.Name(), err)
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrEmptyResponse}
	}

	model := completion.Model
	if model == "" {
		model = p.config.Model
	}

	return &Response{
		Content:     completion.Choices[0].Message.Content,
		TotalTokens: int(completion.Usage.TotalTokens),
		Model:       model,
	}, nil
}

func toSDKMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
