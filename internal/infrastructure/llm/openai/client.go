package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/file-analyzer/internal/infrastructure/resilience"
)

// API is the subset of the OpenAI client the adapters call.
type API interface {
	CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
	CreateTranscription(ctx context.Context, request goopenai.AudioRequest) (goopenai.AudioResponse, error)
}

type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	VisionModel        string
	TranscriptionModel string
	HTTPTimeout        time.Duration
}

// UsageObserver receives token counts for every completed chat request.
type UsageObserver func(operation, model string, promptTokens, completionTokens int)

type Option func(*Client)

func WithResilience(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func WithUsageObserver(observer UsageObserver) Option {
	return func(c *Client) { c.observeUsage = observer }
}

type Client struct {
	api                API
	model              string
	visionModel        string
	transcriptionModel string
	executor           *resilience.Executor
	observeUsage       UsageObserver
}

func New(cfg Config, opts ...Option) *Client {
	apiConfig := goopenai.DefaultConfig(cfg.APIKey)
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		apiConfig.BaseURL = baseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	apiConfig.HTTPClient = &http.Client{Timeout: timeout}
	return NewWithAPI(goopenai.NewClientWithConfig(apiConfig), cfg, opts...)
}

func NewWithAPI(api API, cfg Config, opts ...Option) *Client {
	c := &Client{
		api:                api,
		model:              fallback(cfg.Model, goopenai.GPT4),
		visionModel:        fallback(cfg.VisionModel, goopenai.GPT4o),
		transcriptionModel: fallback(cfg.TranscriptionModel, goopenai.Whisper1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) complete(ctx context.Context, operation string, request goopenai.ChatCompletionRequest) (string, error) {
	response, err := resilience.Do(ctx, c.executor, "openai."+operation, func(callCtx context.Context) (goopenai.ChatCompletionResponse, error) {
		return c.api.CreateChatCompletion(callCtx, request)
	}, classifyOpenAIError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai "+operation, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai %s: no choices returned", operation)
	}

	if c.observeUsage != nil {
		c.observeUsage(operation, request.Model, response.Usage.PromptTokens, response.Usage.CompletionTokens)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
