// Package ollama provides a client for a local Ollama server
package ollama

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
	Model          string
	EmbeddingModel string
	NumPredict     int
	Timeout        time.Duration
}

// Client implements outbound.LLMService and outbound.EmbeddingService using Ollama
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a new Ollama client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2:3b"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.NumPredict <= 0 {
		cfg.NumPredict = 2000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	logger.Info("Ollama client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
			SetHeader("Content-Type", "application/json"),
		cfg:    cfg,
		logger: logger.Named("ollama-client"),
	}
}

// Ollama API structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model        string      `json:"model"`
	Message      chatMessage `json:"message"`
	Done         bool        `json:"done"`
	EvalCount    int         `json:"eval_count,omitempty"`
	EvalDuration int64       `json:"eval_duration,omitempty"`
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// HealthCheck verifies the Ollama service is available
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode())
	}

	c.logger.Debug("Ollama health check passed")
	return nil
}

// Complete sends a non-streaming chat request
func (c *Client) Complete(ctx context.Context, prompt outbound.Prompt) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.User})

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:    c.cfg.Model,
			Messages: messages,
			Stream:   false,
			Options: map[string]any{
				"temperature": prompt.Temperature,
				"num_predict": c.cfg.NumPredict,
				"num_ctx":     4096,
			},
		}).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("ollama chat request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama API error %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Done {
		return "", fmt.Errorf("incomplete response from Ollama")
	}

	c.logger.Debug("Ollama chat completion successful",
		zap.String("purpose", prompt.Purpose),
		zap.String("model", out.Model),
		zap.Int64("eval_duration", out.EvalDuration),
		zap.Int("eval_count", out.EvalCount))

	return out.Message.Content, nil
}

// Embed returns the embedding vector for text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embeddingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: c.cfg.EmbeddingModel, Prompt: text}).
		SetResult(&out).
		Post("/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama embedding API error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return out.Embedding, nil
}
