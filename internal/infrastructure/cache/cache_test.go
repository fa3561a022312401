package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
	"github.com/alchemorsel/pantrychef/test/testutils"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.True(t, cb.AllowRequest())
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.AllowRequest())

	now = now.Add(2 * time.Minute)
	assert.True(t, cb.AllowRequest())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Minute)
	require.True(t, cb.AllowRequest())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestRedisClientOpensCircuitWhenUnreachable(t *testing.T) {
	raw := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	client := NewRedisClientFrom(raw, zaptest.NewLogger(t))
	defer client.Close()

	for i := 0; i < 5; i++ {
		_, err := client.Get(context.Background(), "k")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int64(6), client.Stats().Misses)
}

func TestNewRedisClientFailsFast(t *testing.T) {
	_, err := NewRedisClient(config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 50 * time.Millisecond, MaxRetries: -1}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestCachedRecipeStoreReadThrough(t *testing.T) {
	store := &testutils.MockRecipeStore{}
	cache := testutils.NewMockCacheRepository()
	cached := NewCachedRecipeStore(store, cache, time.Hour, zaptest.NewLogger(t))
	key := recipe.NewExactKey([]string{"pasta", "tomato"}, recipe.DifficultyEasy, recipe.LanguageEnglish)

	store.On("FindExact", mock.Anything, key).
		Return(testutils.NewRecipeBuilder().WithName("Tomato Pasta").Build(), nil).Once()

	first, err := cached.FindExact(context.Background(), key)
	require.NoError(t, err)
	second, err := cached.FindExact(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, "Tomato Pasta", first.Name)
	assert.Equal(t, first.Steps, second.Steps)
	store.AssertNumberOfCalls(t, "FindExact", 1)

	raw, err := cache.Get(context.Background(), RecipeKey(key))
	require.NoError(t, err)
	var decoded recipe.Recipe
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Tomato Pasta", decoded.Name)
}

func TestCachedRecipeStoreMissIsNotCached(t *testing.T) {
	store := &testutils.MockRecipeStore{}
	cache := testutils.NewMockCacheRepository()
	cached := NewCachedRecipeStore(store, cache, time.Hour, zaptest.NewLogger(t))
	key := recipe.NewExactKey([]string{"rice"}, recipe.DifficultyHard, recipe.LanguageTurkish)

	store.On("FindExact", mock.Anything, key).Return(nil, recipe.ErrRecipeNotFound)

	_, err := cached.FindExact(context.Background(), key)
	assert.ErrorIs(t, err, recipe.ErrRecipeNotFound)

	exists, err := cache.Exists(context.Background(), RecipeKey(key))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCachedRecipeStoreSaveInvalidates(t *testing.T) {
	store := &testutils.MockRecipeStore{}
	cache := testutils.NewMockCacheRepository()
	cached := NewCachedRecipeStore(store, cache, time.Hour, zaptest.NewLogger(t))
	key := recipe.NewExactKey([]string{"rice"}, recipe.DifficultyEasy, recipe.LanguageEnglish)
	require.NoError(t, cache.Set(context.Background(), RecipeKey(key), []byte(`{"name":"stale"}`), time.Hour))

	store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, cached.Save(context.Background(), outbound.StoredRecipe{Recipe: testutils.NewRecipeBuilder().Build(), Key: key}))

	_, err := cache.Get(context.Background(), RecipeKey(key))
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("locked"))
	assert.Error(t, cached.Save(context.Background(), outbound.StoredRecipe{Recipe: testutils.NewRecipeBuilder().Build(), Key: key}))
}

func TestRecipeKeyIsOrderInsensitive(t *testing.T) {
	a := RecipeKey(recipe.NewExactKey([]string{"pasta", "tomato"}, recipe.DifficultyEasy, recipe.LanguageEnglish))
	b := RecipeKey(recipe.NewExactKey([]string{"Tomato", "pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish))
	c := RecipeKey(recipe.NewExactKey([]string{"pasta", "tomato"}, recipe.DifficultyHard, recipe.LanguageEnglish))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "recipe:exact:")
}
