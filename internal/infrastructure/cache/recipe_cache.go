package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// CachedRecipeStore puts a read-through cache in front of exact lookups.
// Semantic lookups always go to the store.
type CachedRecipeStore struct {
	store  outbound.RecipeStore
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRecipeStore wraps a recipe store
func NewCachedRecipeStore(store outbound.RecipeStore, cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedRecipeStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedRecipeStore{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("recipe-cache"),
	}
}

var _ outbound.RecipeStore = (*CachedRecipeStore)(nil)

// FindExact returns the cached recipe or loads and caches it
func (c *CachedRecipeStore) FindExact(ctx context.Context, key recipe.ExactKey) (*recipe.Recipe, error) {
	cacheKey := RecipeKey(key)

	data, err := c.cache.Get(ctx, cacheKey)
	if err == nil {
		var cached recipe.Recipe
		if err := json.Unmarshal(data, &cached); err == nil {
			c.logger.Debug("Recipe cache hit", zap.String("key", key.String()))
			return &cached, nil
		}
		c.logger.Warn("Failed to unmarshal cached recipe", zap.String("key", key.String()), zap.Error(err))
	} else if !errors.Is(err, outbound.ErrCacheMiss) {
		c.logger.Debug("Recipe cache unavailable", zap.Error(err))
	}

	found, err := c.store.FindExact(ctx, key)
	if err != nil {
		return nil, err
	}

	c.put(ctx, cacheKey, found)
	return found, nil
}

// FindNearest delegates to the store
func (c *CachedRecipeStore) FindNearest(ctx context.Context, query outbound.NearestQuery) (*recipe.Recipe, float64, error) {
	return c.store.FindNearest(ctx, query)
}

// Save writes to the store and drops any cached entry for the key
func (c *CachedRecipeStore) Save(ctx context.Context, stored outbound.StoredRecipe) error {
	if err := c.store.Save(ctx, stored); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, RecipeKey(stored.Key)); err != nil {
		c.logger.Debug("Failed to invalidate cached recipe", zap.Error(err))
	}
	return nil
}

func (c *CachedRecipeStore) put(ctx context.Context, cacheKey string, r *recipe.Recipe) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey, data, c.ttl); err != nil {
		c.logger.Debug("Failed to cache recipe", zap.Error(err))
	}
}

// RecipeKey hashes an exact key into a bounded cache key
func RecipeKey(key recipe.ExactKey) string {
	sum := blake2b.Sum256([]byte(key.String()))
	return "recipe:exact:" + hex.EncodeToString(sum[:16])
}
