package cookbook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/pantrychef/internal/application/cookbook"
	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
	"github.com/alchemorsel/pantrychef/test/testutils"
)

type CookbookTestSuite struct {
	suite.Suite
	store    *testutils.MockRecipeStore
	embedder *testutils.MockEmbeddingService
	errorLog *testutils.MockErrorLogRepository
	book     *cookbook.Cookbook
	ctx      context.Context
}

func (s *CookbookTestSuite) SetupTest() {
	s.store = &testutils.MockRecipeStore{}
	s.embedder = &testutils.MockEmbeddingService{}
	s.errorLog = &testutils.MockErrorLogRepository{}
	s.ctx = context.Background()
	s.book = cookbook.New(s.store, s.embedder, s.errorLog, cookbook.Config{
		StoreTimeout: time.Second,
		EmbedTimeout: time.Second,
		QueueSize:    4,
	}, zaptest.NewLogger(s.T()))
}

func (s *CookbookTestSuite) TearDownTest() {
	s.NoError(s.book.Close(s.ctx))
}

func (s *CookbookTestSuite) TestLookupExactUsesOrderInsensitiveKey() {
	expected := recipe.NewExactKey([]string{"tomato", "pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish)
	s.store.On("FindExact", mock.Anything, expected).
		Return(testutils.NewRecipeBuilder().WithName("Cached Pasta").Build(), nil)

	found, err := s.book.LookupExact(s.ctx, []string{"Pasta", " tomato"}, recipe.DifficultyEasy, recipe.LanguageEnglish)

	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal("Cached Pasta", found.Name)
	s.Equal("pasta,tomato|easy|en", expected.String())
}

func (s *CookbookTestSuite) TestLookupExactMiss() {
	s.store.On("FindExact", mock.Anything, mock.Anything).Return(nil, recipe.ErrRecipeNotFound)

	found, err := s.book.LookupExact(s.ctx, []string{"pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish)

	s.NoError(err)
	s.Nil(found)
}

func (s *CookbookTestSuite) TestLookupExactStoreFailure() {
	s.store.On("FindExact", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	found, err := s.book.LookupExact(s.ctx, []string{"pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish)

	s.Error(err)
	s.Nil(found)
}

func (s *CookbookTestSuite) TestLookupExactIgnoresMalformedRecipe() {
	s.store.On("FindExact", mock.Anything, mock.Anything).
		Return(&recipe.Recipe{Name: "No Steps", Ingredients: []string{"pasta"}}, nil)

	found, err := s.book.LookupExact(s.ctx, []string{"pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish)

	s.NoError(err)
	s.Nil(found)
}

func (s *CookbookTestSuite) TestLookupSemanticThreshold() {
	vector := []float32{0.6, 0.8}
	s.embedder.On("Embed", mock.Anything, "Ingredients: pasta, tomato").Return(vector, nil)
	s.store.On("FindNearest", mock.Anything, outbound.NearestQuery{
		Embedding:  vector,
		Difficulty: recipe.DifficultyEasy,
		Language:   recipe.LanguageEnglish,
	}).Return(testutils.NewRecipeBuilder().WithName("Close Pasta").Build(), 0.4, nil)

	found, err := s.book.LookupSemantic(s.ctx, []string{"tomato", "pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish, 0.55)
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal("Close Pasta", found.Name)

	found, err = s.book.LookupSemantic(s.ctx, []string{"tomato", "pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish, 0.3)
	s.NoError(err)
	s.Nil(found, "distance above threshold is a miss")

	found, err = s.book.LookupSemantic(s.ctx, []string{"tomato", "pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish, 0.4)
	s.NoError(err)
	s.Nil(found, "distance equal to threshold is a miss")
}

func (s *CookbookTestSuite) TestLookupSemanticEmbeddingFailure() {
	s.embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("model unavailable"))

	found, err := s.book.LookupSemantic(s.ctx, []string{"pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish, 0.55)

	s.Error(err)
	s.Nil(found)
	s.store.AssertNotCalled(s.T(), "FindNearest", mock.Anything, mock.Anything)
}

func (s *CookbookTestSuite) TestPersistIsDrainedOnClose() {
	saved := make(chan outbound.StoredRecipe, 1)
	s.embedder.On("Embed", mock.Anything, "Ingredients: pasta, tomato").Return([]float32{1, 0}, nil)
	s.store.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved <- args.Get(1).(outbound.StoredRecipe) }).
		Return(nil)

	r := testutils.NewRecipeBuilder().WithName("Fresh Pasta").Build()
	s.book.Persist(s.ctx, r, []string{"tomato", "pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish)
	s.Require().NoError(s.book.Close(s.ctx))

	stored := <-saved
	s.Equal("Fresh Pasta", stored.Recipe.Name)
	s.Equal("pasta,tomato|easy|en", stored.Key.String())
	s.Equal([]float32{1, 0}, stored.Embedding)

	s.book.Persist(s.ctx, r, []string{"pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish)
	s.ErrorIs(s.book.Save(s.ctx, r, []string{"pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish), cookbook.ErrClosed)
	s.store.AssertNumberOfCalls(s.T(), "Save", 1)
}

func (s *CookbookTestSuite) TestSaveWithoutEmbedding() {
	s.embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("model unavailable"))
	s.store.On("Save", mock.Anything, mock.MatchedBy(func(st outbound.StoredRecipe) bool {
		return st.Embedding == nil && st.Key.IngredientKey() == "pasta"
	})).Return(nil)

	err := s.book.Save(s.ctx, testutils.NewRecipeBuilder().Build(), []string{"pasta"}, recipe.DifficultyHard, recipe.LanguageTurkish)

	s.NoError(err)
}

func (s *CookbookTestSuite) TestSaveRejectsInvalidRecipe() {
	err := s.book.Save(s.ctx, &recipe.Recipe{Name: "Empty"}, []string{"pasta"}, recipe.DifficultyEasy, recipe.LanguageEnglish)

	s.ErrorIs(err, recipe.ErrNoIngredients)
	s.store.AssertNotCalled(s.T(), "Save", mock.Anything, mock.Anything)
}

func (s *CookbookTestSuite) TestLogError() {
	s.errorLog.On("Append", mock.Anything, mock.MatchedBy(func(e outbound.ErrorLogEntry) bool {
		return e.Type == cookbook.ErrorTypeGeneration && e.RequestID == "req-1" && !e.CreatedAt.IsZero()
	})).Return(errors.New("disk full"))

	s.NotPanics(func() {
		s.book.LogError(s.ctx, cookbook.ErrorTypeGeneration, "parse failure", "req-1")
	})
	s.errorLog.AssertExpectations(s.T())
}

func TestCookbookTestSuite(t *testing.T) {
	suite.Run(t, new(CookbookTestSuite))
}
