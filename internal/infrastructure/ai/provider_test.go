package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/ai/embedding"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
	"github.com/alchemorsel/pantrychef/pkg/healthcheck"
	"github.com/alchemorsel/pantrychef/test/testutils"
)

type fakeBackend struct {
	reply     string
	err       error
	healthErr error
	embeds    int
	delay     time.Duration
}

func (f *fakeBackend) Complete(ctx context.Context, prompt outbound.Prompt) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	f.embeds++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.25, -0.5, 1}, nil
}

func (f *fakeBackend) HealthCheck(ctx context.Context) error {
	return f.healthErr
}

type recordedCall struct {
	provider, purpose, status string
}

type fakeMetrics struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (m *fakeMetrics) ObserveLLMCall(provider, purpose, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedCall{provider, purpose, status})
}

func TestNewProviderSelection(t *testing.T) {
	logger := zaptest.NewLogger(t)

	p, err := NewProvider(Config{Provider: ProviderOpenAI}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Name())

	p, err = NewProvider(Config{}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, p.Name())

	_, err = NewProvider(Config{Provider: "mystery"}, nil, logger)
	assert.Error(t, err)
}

func TestProviderRecordsMetrics(t *testing.T) {
	metrics := &fakeMetrics{}
	backend := &fakeBackend{reply: `{"valid": true}`}
	p := newProvider("ollama", backend, rate.NewLimiter(rate.Inf, 1), time.Second, metrics, zaptest.NewLogger(t))

	out, err := p.Complete(context.Background(), outbound.Prompt{User: "review", Purpose: "review"})
	require.NoError(t, err)
	assert.Equal(t, `{"valid": true}`, out)

	backend.err = errors.New("boom")
	_, err = p.Complete(context.Background(), outbound.Prompt{User: "generate", Purpose: "generate"})
	require.Error(t, err)

	assert.Equal(t, []recordedCall{
		{"ollama", "review", "success"},
		{"ollama", "generate", "error"},
	}, metrics.calls)
}

func TestProviderCallTimeout(t *testing.T) {
	backend := &fakeBackend{reply: "late", delay: time.Second}
	p := newProvider("ollama", backend, rate.NewLimiter(rate.Inf, 1), 20*time.Millisecond, nil, zaptest.NewLogger(t))

	_, err := p.Complete(context.Background(), outbound.Prompt{User: "x"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProviderThrottledByCancelledContext(t *testing.T) {
	metrics := &fakeMetrics{}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow())
	p := newProvider("openai", &fakeBackend{reply: "x"}, limiter, time.Second, metrics, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Complete(ctx, outbound.Prompt{User: "x", Purpose: "generate"})

	assert.Error(t, err)
	assert.Equal(t, []recordedCall{{"openai", "generate", "throttled"}}, metrics.calls)
}

func TestCachedEmbedder(t *testing.T) {
	backend := &fakeBackend{}
	p := newProvider("ollama", backend, rate.NewLimiter(rate.Inf, 1), time.Second, nil, zaptest.NewLogger(t))
	cache := testutils.NewMockCacheRepository()
	embedder := NewEmbedder(Config{Embedding: EmbeddingProvider}, p, cache, zaptest.NewLogger(t))

	first, err := embedder.Embed(context.Background(), "Ingredients: pasta, tomato")
	require.NoError(t, err)
	second, err := embedder.Embed(context.Background(), "Ingredients: pasta, tomato")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.embeds)

	_, err = embedder.Embed(context.Background(), "Ingredients: rice")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.embeds)
}

func TestNewEmbedderDefaultsToLocal(t *testing.T) {
	p := newProvider("ollama", &fakeBackend{err: errors.New("offline")}, rate.NewLimiter(rate.Inf, 1), time.Second, nil, zaptest.NewLogger(t))

	embedder := NewEmbedder(Config{EmbeddingDims: 64}, p, nil, zaptest.NewLogger(t))
	local, ok := embedder.(*embedding.Local)
	require.True(t, ok)
	assert.Equal(t, 64, local.Dimensions())

	vec, err := embedder.Embed(context.Background(), "Ingredients: pasta")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestCachedEmbedderSeparatesDimensions(t *testing.T) {
	p := newProvider("ollama", &fakeBackend{}, rate.NewLimiter(rate.Inf, 1), time.Second, nil, zaptest.NewLogger(t))
	cache := testutils.NewMockCacheRepository()

	small := NewEmbedder(Config{EmbeddingDims: 32}, p, cache, zaptest.NewLogger(t))
	vec, err := small.Embed(context.Background(), "Ingredients: pasta")
	require.NoError(t, err)
	assert.Len(t, vec, 32)

	large := NewEmbedder(Config{EmbeddingDims: 64}, p, cache, zaptest.NewLogger(t))
	vec, err = large.Embed(context.Background(), "Ingredients: pasta")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestVectorCodec(t *testing.T) {
	vec := []float32{1.5, -2, 0}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestHealthChecker(t *testing.T) {
	backend := &fakeBackend{}
	p := newProvider("ollama", backend, rate.NewLimiter(rate.Inf, 1), time.Second, nil, zaptest.NewLogger(t))
	checker := NewHealthChecker(p)

	check := checker.Check(context.Background())
	assert.Equal(t, healthcheck.StatusHealthy, check.Status)
	metadata, ok := check.Metadata.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "ollama", metadata["provider"])

	backend.healthErr = errors.New("connection refused")
	check = checker.Check(context.Background())
	assert.Equal(t, healthcheck.StatusDegraded, check.Status)
	assert.Equal(t, "connection refused", check.Message)
}
