// Package ai wires LLM and embedding backends behind the outbound ports
package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/ai/embedding"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// Supported providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Embedding backends
const (
	EmbeddingLocal    = "local"
	EmbeddingProvider = "provider"
)

// Config selects and tunes the LLM provider
type Config struct {
	Provider          string
	CallTimeout       time.Duration
	RequestsPerMinute int
	Burst             int
	Embedding         string
	EmbeddingDims     int
	OpenAI            openai.Config
	Ollama            ollama.Config
}

// Metrics receives LLM call measurements
type Metrics interface {
	ObserveLLMCall(provider, purpose, status string, duration time.Duration)
}

type backend interface {
	outbound.LLMService
	outbound.EmbeddingService
	outbound.HealthChecker
}

// Provider is the throttled, instrumented LLM used by every workflow stage
type Provider struct {
	name    string
	backend backend
	limiter *rate.Limiter
	timeout time.Duration
	metrics Metrics
	logger  *zap.Logger
}

// NewProvider creates the configured provider
func NewProvider(cfg Config, metrics Metrics, logger *zap.Logger) (*Provider, error) {
	namedLogger := logger.Named("ai-provider")

	var b backend
	switch cfg.Provider {
	case ProviderOpenAI:
		b = openai.NewClient(cfg.OpenAI, namedLogger)
	case ProviderOllama, "":
		cfg.Provider = ProviderOllama
		b = ollama.NewClient(cfg.Ollama, namedLogger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}

	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	namedLogger.Info("AI provider initialized",
		zap.String("provider", cfg.Provider),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Duration("call_timeout", cfg.CallTimeout))

	return newProvider(cfg.Provider, b, rate.NewLimiter(limit, cfg.Burst), cfg.CallTimeout, metrics, namedLogger), nil
}

func newProvider(name string, b backend, limiter *rate.Limiter, timeout time.Duration, metrics Metrics, logger *zap.Logger) *Provider {
	return &Provider{
		name:    name,
		backend: b,
		limiter: limiter,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// Name returns the active provider
func (p *Provider) Name() string {
	return p.name
}

// Complete waits for the rate limiter and calls the backend under the call timeout
func (p *Provider) Complete(ctx context.Context, prompt outbound.Prompt) (string, error) {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		p.observe(prompt.Purpose, "throttled", start)
		return "", fmt.Errorf("waiting for LLM rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.backend.Complete(ctx, prompt)
	if err != nil {
		p.observe(prompt.Purpose, "error", start)
		p.logger.Warn("LLM call failed", zap.String("purpose", prompt.Purpose), zap.Error(err))
		return "", err
	}
	p.observe(prompt.Purpose, "success", start)
	return out, nil
}

// Embed calls the backend embedding endpoint under the call timeout
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		p.observe("embed", "throttled", start)
		return nil, fmt.Errorf("waiting for LLM rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vec, err := p.backend.Embed(ctx, text)
	if err != nil {
		p.observe("embed", "error", start)
		return nil, err
	}
	p.observe("embed", "success", start)
	return vec, nil
}

// HealthCheck probes the backend
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.backend.HealthCheck(ctx)
}

func (p *Provider) observe(purpose, status string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveLLMCall(p.name, purpose, status, time.Since(start))
	}
}

// NewEmbedder returns the configured embedding service, cached when a cache is given
func NewEmbedder(cfg Config, provider *Provider, cache outbound.CacheRepository, logger *zap.Logger) outbound.EmbeddingService {
	var svc outbound.EmbeddingService
	switch cfg.Embedding {
	case EmbeddingProvider:
		svc = provider
	default:
		svc = embedding.NewLocal(cfg.EmbeddingDims)
	}
	if cache == nil {
		return svc
	}
	return NewCachedEmbedder(svc, cache, embeddingNamespace(cfg, provider.Name()), logger)
}

// embeddingNamespace separates cached vectors by backend, provider and dimension
func embeddingNamespace(cfg Config, providerName string) string {
	return fmt.Sprintf("%s:%s:%d", cfg.Embedding, providerName, cfg.EmbeddingDims)
}
