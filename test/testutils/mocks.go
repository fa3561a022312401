// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/inbound"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

func recipeArg(args mock.Arguments, i int) *recipe.Recipe {
	if v := args.Get(i); v != nil {
		return v.(*recipe.Recipe)
	}
	return nil
}

// MockCookbook provides a mock implementation of the lookup and persist stages
type MockCookbook struct {
	mock.Mock
	persisted []PersistCall
	mu        sync.Mutex
}

// PersistCall records one Persist invocation
type PersistCall struct {
	Recipe      *recipe.Recipe
	Ingredients []string
	Difficulty  recipe.Difficulty
	Language    recipe.Language
}

// NewMockCookbook creates a new mock cookbook
func NewMockCookbook() *MockCookbook {
	return &MockCookbook{}
}

// LookupExact looks up a recipe by exact ingredient set
func (m *MockCookbook) LookupExact(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error) {
	args := m.Called(ctx, ingredients, difficulty, language)
	return recipeArg(args, 0), args.Error(1)
}

// LookupSemantic looks up the nearest recipe
func (m *MockCookbook) LookupSemantic(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language, threshold float64) (*recipe.Recipe, error) {
	args := m.Called(ctx, ingredients, difficulty, language, threshold)
	return recipeArg(args, 0), args.Error(1)
}

// Persist records the recipe without expectations
func (m *MockCookbook) Persist(ctx context.Context, r *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.persisted = append(m.persisted, PersistCall{
		Recipe:      r,
		Ingredients: append([]string(nil), ingredients...),
		Difficulty:  difficulty,
		Language:    language,
	})
}

// Persisted returns the recorded Persist calls
func (m *MockCookbook) Persisted() []PersistCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]PersistCall(nil), m.persisted...)
}

// SetupMissBehavior makes every lookup miss
func (m *MockCookbook) SetupMissBehavior() {
	m.On("LookupExact", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)

	m.On("LookupSemantic", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)
}

// MockWebSearcher provides a mock web search stage
type MockWebSearcher struct {
	mock.Mock
}

// SearchWeb searches the web for a recipe
func (m *MockWebSearcher) SearchWeb(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error) {
	args := m.Called(ctx, ingredients, difficulty, language)
	return recipeArg(args, 0), args.Error(1)
}

// MockGenerator provides a mock generation stage
type MockGenerator struct {
	mock.Mock
}

// Generate generates a recipe
func (m *MockGenerator) Generate(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error) {
	args := m.Called(ctx, append([]string(nil), ingredients...), difficulty, language)
	return recipeArg(args, 0), args.Error(1)
}

// MockValidator provides a mock review stage
type MockValidator struct {
	mock.Mock
}

// Validate judges a recipe
func (m *MockValidator) Validate(ctx context.Context, candidate *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language, source recipe.Source) recipe.Verdict {
	args := m.Called(ctx, candidate, append([]string(nil), ingredients...), difficulty, language, source)
	return args.Get(0).(recipe.Verdict)
}

// MockRecipeStore provides a mock implementation of outbound.RecipeStore
type MockRecipeStore struct {
	mock.Mock
}

// FindExact finds a recipe by exact key
func (m *MockRecipeStore) FindExact(ctx context.Context, key recipe.ExactKey) (*recipe.Recipe, error) {
	args := m.Called(ctx, key)
	return recipeArg(args, 0), args.Error(1)
}

// FindNearest finds the nearest recipe by embedding
func (m *MockRecipeStore) FindNearest(ctx context.Context, query outbound.NearestQuery) (*recipe.Recipe, float64, error) {
	args := m.Called(ctx, query)
	return recipeArg(args, 0), args.Get(1).(float64), args.Error(2)
}

// Save stores a recipe
func (m *MockRecipeStore) Save(ctx context.Context, stored outbound.StoredRecipe) error {
	args := m.Called(ctx, stored)
	return args.Error(0)
}

// MockErrorLogRepository provides a mock implementation of outbound.ErrorLogRepository
type MockErrorLogRepository struct {
	mock.Mock
}

// Append stores an error log entry
func (m *MockErrorLogRepository) Append(ctx context.Context, entry outbound.ErrorLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockLLMService provides a mock implementation of outbound.LLMService
type MockLLMService struct {
	mock.Mock
}

// Complete returns a canned completion
func (m *MockLLMService) Complete(ctx context.Context, prompt outbound.Prompt) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockEmbeddingService provides a mock implementation of outbound.EmbeddingService
type MockEmbeddingService struct {
	mock.Mock
}

// Embed returns a canned vector
func (m *MockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSearchProvider provides a mock implementation of outbound.SearchProvider
type MockSearchProvider struct {
	mock.Mock
}

// Search returns canned results
func (m *MockSearchProvider) Search(ctx context.Context, query outbound.SearchQuery) ([]outbound.SearchResult, error) {
	args := m.Called(ctx, query)
	if v := args.Get(0); v != nil {
		return v.([]outbound.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCacheRepository provides an in-memory mock of outbound.CacheRepository
type MockCacheRepository struct {
	mock.Mock
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMockCacheRepository creates a new mock cache repository
func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

// Get retrieves a value from cache
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, outbound.ErrCacheMiss
}

// Set stores a value in cache
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

// Delete removes a value from cache
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Exists checks if a key exists in cache
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[key]
	return ok, nil
}

// MockRecipeService provides a mock implementation of inbound.RecipeService
type MockRecipeService struct {
	mock.Mock
}

// Generate runs the generation workflow
func (m *MockRecipeService) Generate(ctx context.Context, cmd inbound.GenerateCommand) (*inbound.GenerationResult, error) {
	args := m.Called(ctx, cmd)
	if v := args.Get(0); v != nil {
		return v.(*inbound.GenerationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// Modify reruns generation with a changed ingredient list
func (m *MockRecipeService) Modify(ctx context.Context, cmd inbound.ModifyCommand) (*inbound.GenerationResult, error) {
	args := m.Called(ctx, cmd)
	if v := args.Get(0); v != nil {
		return v.(*inbound.GenerationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// Feedback records user feedback
func (m *MockRecipeService) Feedback(ctx context.Context, cmd inbound.FeedbackCommand) (*inbound.FeedbackResult, error) {
	args := m.Called(ctx, cmd)
	if v := args.Get(0); v != nil {
		return v.(*inbound.FeedbackResult), args.Error(1)
	}
	return nil, args.Error(1)
}
