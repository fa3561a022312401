// Package openai provides an OpenAI-compatible chat and embedding client
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// Config configures the client
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Timeout        time.Duration
}

// Client implements outbound.LLMService and outbound.EmbeddingService against /v1 style APIs
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a new OpenAI-compatible client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	logger.Info("OpenAI-compatible client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Bool("api_key_set", cfg.APIKey != ""),
	)

	return &Client{
		http:   client,
		cfg:    cfg,
		logger: logger.Named("openai-client"),
	}
}

// OpenAI API structures
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Complete sends a chat completion request
func (c *Client) Complete(ctx context.Context, prompt outbound.Prompt) (string, error) {
	messages := make([]message, 0, 2)
	if prompt.System != "" {
		messages = append(messages, message{Role: "system", Content: prompt.System})
	}
	messages = append(messages, message{Role: "user", Content: prompt.User})

	var out chatCompletionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{
			Model:       c.cfg.Model,
			Messages:    messages,
			Temperature: prompt.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat completion API error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	c.logger.Debug("Chat completion successful",
		zap.String("purpose", prompt.Purpose),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
	)
	return out.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embeddingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: c.cfg.EmbeddingModel, Input: text}).
		SetResult(&out).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding API error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return out.Data[0].Embedding, nil
}

// HealthCheck lists models to verify the API is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/models")
	if err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("openai health check failed with status %d", resp.StatusCode())
	}
	return nil
}
