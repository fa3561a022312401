// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
)

// RecipeStore defines the interface for recipe persistence and lookup
type RecipeStore interface {
	// FindExact returns recipe.ErrRecipeNotFound when no recipe matches the key
	FindExact(ctx context.Context, key recipe.ExactKey) (*recipe.Recipe, error)

	// FindNearest returns the closest stored recipe for the same difficulty and language
	// together with its distance. It returns recipe.ErrRecipeNotFound on an empty index.
	FindNearest(ctx context.Context, query NearestQuery) (*recipe.Recipe, float64, error)

	// Save stores a recipe under its exact key. Saving an existing key is a no-op.
	Save(ctx context.Context, rec StoredRecipe) error
}

// NearestQuery describes a semantic lookup
type NearestQuery struct {
	Embedding  []float32
	Difficulty recipe.Difficulty
	Language   recipe.Language
}

// StoredRecipe is a recipe together with its lookup keys
type StoredRecipe struct {
	Recipe    *recipe.Recipe
	Key       recipe.ExactKey
	Embedding []float32
}

// ErrorLogRepository appends workflow and API failures for later inspection
type ErrorLogRepository interface {
	Append(ctx context.Context, entry ErrorLogEntry) error
}

// ErrorLogEntry is a single logged failure
type ErrorLogEntry struct {
	Type      string
	Message   string
	RequestID string
	CreatedAt time.Time
}

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
