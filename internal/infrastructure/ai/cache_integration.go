package ai

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// embeddingTTL bounds how long cached vectors live
const embeddingTTL = 7 * 24 * time.Hour

// CachedEmbedder wraps an embedding service with a read-through cache
type CachedEmbedder struct {
	next      outbound.EmbeddingService
	cache     outbound.CacheRepository
	namespace string
	logger    *zap.Logger
}

// NewCachedEmbedder creates a cached embedding service; namespace separates models
func NewCachedEmbedder(next outbound.EmbeddingService, cache outbound.CacheRepository, namespace string, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:      next,
		cache:     cache,
		namespace: namespace,
		logger:    logger.Named("cached-embedder"),
	}
}

// Embed returns a cached vector or computes and stores a new one
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		if vec, decodeErr := decodeVector(raw); decodeErr == nil {
			return vec, nil
		}
	} else if !errors.Is(err, outbound.ErrCacheMiss) {
		c.logger.Debug("embedding cache read failed", zap.Error(err))
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, encodeVector(vec), embeddingTTL); err != nil {
		c.logger.Debug("embedding cache write failed", zap.Error(err))
	}
	return vec, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return "embedding:" + c.namespace + ":" + hex.EncodeToString(sum[:16])
}

func encodeVector(vec []float32) []byte {
	out := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector of %d bytes", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}
