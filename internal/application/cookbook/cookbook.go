// Package cookbook implements recipe lookup and persistence on top of the recipe store.
package cookbook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// Error log entry types
const (
	ErrorTypeGeneration   = "GenerationError"
	ErrorTypeModification = "ModificationError"
	ErrorTypeFeedback     = "FeedbackError"
)

// ErrClosed is returned when saving after Close
var ErrClosed = errors.New("cookbook is closed")

// Config holds cookbook settings
type Config struct {
	StoreTimeout time.Duration
	EmbedTimeout time.Duration
	QueueSize    int
}

type persistJob struct {
	recipe      *recipe.Recipe
	ingredients []string
	difficulty  recipe.Difficulty
	language    recipe.Language
}

// Cookbook looks up stored recipes and saves new ones in the background
type Cookbook struct {
	store    outbound.RecipeStore
	embedder outbound.EmbeddingService
	errorLog outbound.ErrorLogRepository
	logger   *zap.Logger
	cfg      Config

	queue  chan persistJob
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// New creates a cookbook and starts its persistence worker
func New(store outbound.RecipeStore, embedder outbound.EmbeddingService, errorLog outbound.ErrorLogRepository, cfg Config, logger *zap.Logger) *Cookbook {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 10 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cookbook{
		store:    store,
		embedder: embedder,
		errorLog: errorLog,
		logger:   logger.Named("cookbook"),
		cfg:      cfg,
		queue:    make(chan persistJob, cfg.QueueSize),
	}
	c.wg.Add(1)
	go c.worker()
	return c
}

// LookupExact returns the stored recipe for the exact ingredient set, or nil on a miss
func (c *Cookbook) LookupExact(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error) {
	key := recipe.NewExactKey(ingredients, difficulty, language)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()

	found, err := c.store.FindExact(ctx, key)
	if errors.Is(err, recipe.ErrRecipeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exact lookup %s: %w", key, err)
	}
	if err := found.Validate(); err != nil {
		c.logger.Warn("stored recipe failed validation", zap.String("key", key.String()), zap.Error(err))
		return nil, nil
	}
	return found, nil
}

// LookupSemantic returns the nearest stored recipe whose distance is strictly below threshold
func (c *Cookbook) LookupSemantic(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language, threshold float64) (*recipe.Recipe, error) {
	vector, err := c.embed(ctx, ingredients)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()

	found, distance, err := c.store.FindNearest(ctx, outbound.NearestQuery{
		Embedding:  vector,
		Difficulty: difficulty,
		Language:   language.OrDefault(),
	})
	if errors.Is(err, recipe.ErrRecipeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("semantic lookup: %w", err)
	}

	c.logger.Debug("nearest recipe", zap.String("name", found.Name), zap.Float64("distance", distance), zap.Float64("threshold", threshold))
	if distance >= threshold {
		return nil, nil
	}
	if err := found.Validate(); err != nil {
		c.logger.Warn("stored recipe failed validation", zap.String("name", found.Name), zap.Error(err))
		return nil, nil
	}
	return found, nil
}

// Persist queues the recipe for saving and returns immediately
func (c *Cookbook) Persist(ctx context.Context, r *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.logger.Warn("dropping recipe persist after close", zap.String("name", r.Name))
		return
	}

	job := persistJob{
		recipe:      r.Clone(),
		ingredients: append([]string(nil), ingredients...),
		difficulty:  difficulty,
		language:    language,
	}
	select {
	case c.queue <- job:
	default:
		c.logger.Warn("persist queue full, dropping recipe", zap.String("name", r.Name))
	}
}

// Save stores the recipe synchronously
func (c *Cookbook) Save(ctx context.Context, r *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return c.save(ctx, persistJob{recipe: r, ingredients: ingredients, difficulty: difficulty, language: language})
}

// LogError appends an entry to the error log; failures are only logged
func (c *Cookbook) LogError(ctx context.Context, errorType, message, requestID string) {
	if c.errorLog == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()

	err := c.errorLog.Append(ctx, outbound.ErrorLogEntry{
		Type:      errorType,
		Message:   message,
		RequestID: requestID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Error("failed to append error log", zap.String("type", errorType), zap.Error(err))
	}
}

// Close stops accepting work and waits for queued recipes to be saved
func (c *Cookbook) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining persist queue: %w", ctx.Err())
	}
}

func (c *Cookbook) worker() {
	defer c.wg.Done()

	for job := range c.queue {
		if err := c.save(context.Background(), job); err != nil {
			c.logger.Error("failed to persist recipe", zap.String("name", job.recipe.Name), zap.Error(err))
		}
	}
}

func (c *Cookbook) save(ctx context.Context, job persistJob) error {
	if err := job.recipe.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid recipe: %w", err)
	}

	vector, err := c.embed(ctx, job.ingredients)
	if err != nil {
		c.logger.Warn("storing recipe without embedding", zap.Error(err))
		vector = nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()

	return c.store.Save(ctx, outbound.StoredRecipe{
		Recipe:    job.recipe,
		Key:       recipe.NewExactKey(job.ingredients, job.difficulty, job.language),
		Embedding: vector,
	})
}

func (c *Cookbook) embed(ctx context.Context, ingredients []string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.EmbedTimeout)
	defer cancel()

	vector, err := c.embedder.Embed(ctx, recipe.EmbeddingText(ingredients))
	if err != nil {
		return nil, fmt.Errorf("embedding ingredients: %w", err)
	}
	return vector, nil
}
