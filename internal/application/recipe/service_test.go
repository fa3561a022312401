package recipe_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/pantrychef/internal/application/cookbook"
	service "github.com/alchemorsel/pantrychef/internal/application/recipe"
	"github.com/alchemorsel/pantrychef/internal/application/workflow"
	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/inbound"
	"github.com/alchemorsel/pantrychef/pkg/errors"
	"github.com/alchemorsel/pantrychef/test/testutils"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, req workflow.Request) workflow.Result {
	args := m.Called(ctx, req.Ingredients, req.Difficulty, req.Language)
	if req.Observer != nil {
		req.Observer(workflow.Event{Step: workflow.StepSearchCache, Message: "checking", Iteration: 1})
	}
	return args.Get(0).(workflow.Result)
}

type mockLibrary struct {
	mock.Mock
}

func (m *mockLibrary) Save(ctx context.Context, r *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) error {
	args := m.Called(ctx, r, ingredients, difficulty, language)
	return args.Error(0)
}

func (m *mockLibrary) LogError(ctx context.Context, errorType, message, requestID string) {
	m.Called(ctx, errorType, message, requestID)
}

type RecipeServiceTestSuite struct {
	suite.Suite
	runner  *mockRunner
	library *mockLibrary
	service *service.RecipeService
	ctx     context.Context
}

func (s *RecipeServiceTestSuite) SetupTest() {
	s.runner = &mockRunner{}
	s.library = &mockLibrary{}
	s.service = service.NewRecipeService(s.runner, s.library, zaptest.NewLogger(s.T()))
	s.ctx = context.Background()
}

func (s *RecipeServiceTestSuite) TestGenerateSuccess() {
	r := testutils.NewRecipeBuilder().WithName("Tomato Pasta").Build()
	s.runner.On("Run", mock.Anything, []string{"pasta", "tomato", "salt"}, recipe.DifficultyEasy, recipe.LanguageEnglish).
		Return(workflow.Result{Status: workflow.StatusSuccess, Recipe: r, Source: recipe.SourceGenerate, Iterations: 1})

	var progress []string
	res, err := s.service.Generate(s.ctx, inbound.GenerateCommand{
		Ingredients: []string{"pasta", "tomato", "salt"},
		Difficulty:  recipe.DifficultyEasy,
		RequestID:   "req-1",
		Progress:    func(step, message string, iteration int) { progress = append(progress, step) },
	})

	s.Require().NoError(err)
	s.Equal(inbound.StatusSuccess, res.Status)
	s.Equal("Tomato Pasta", res.Recipe.Name)
	s.Equal(recipe.SourceGenerate, res.Source)
	checks := testutils.NewRecipeAssertions(s.T())
	checks.Complete(res.Recipe)
	checks.UsesIngredients(res.Recipe, []string{"pasta", "tomato"})
	s.NotNil(res.ExtrasAdded)
	s.Equal([]string{"search_cache"}, progress)
	s.library.AssertNotCalled(s.T(), "LogError", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *RecipeServiceTestSuite) TestGenerateOnlyDefaults() {
	_, err := s.service.Generate(s.ctx, inbound.GenerateCommand{
		Ingredients: []string{"salt", "water", "oil"},
		Difficulty:  recipe.DifficultyEasy,
		Language:    recipe.LanguageTurkish,
	})

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeMinIngredients))
	s.True(stderrors.Is(err, recipe.ErrMinIngredients))

	var appErr *errors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(http.StatusUnprocessableEntity, appErr.StatusCode())
	s.Equal(recipe.Message(recipe.MsgMinIngredients, recipe.LanguageTurkish), appErr.Message)
	s.runner.AssertNotCalled(s.T(), "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *RecipeServiceTestSuite) TestGenerateWorkflowErrorIsLogged() {
	s.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(workflow.Result{
		Status:       workflow.StatusError,
		ErrorMessage: recipe.Message(recipe.MsgRecipeNotFound, recipe.LanguageEnglish),
		ExtrasAdded:  []string{"garlic"},
		Iterations:   3,
	})
	s.library.On("LogError", mock.Anything, cookbook.ErrorTypeGeneration, mock.Anything, "req-2").Return()

	res, err := s.service.Generate(s.ctx, inbound.GenerateCommand{
		Ingredients: []string{"pasta"},
		Difficulty:  recipe.DifficultyHard,
		RequestID:   "req-2",
	})

	s.Require().NoError(err)
	s.Equal(inbound.StatusError, res.Status)
	s.Nil(res.Recipe)
	s.Equal([]string{"garlic"}, res.ExtrasAdded)
	s.library.AssertExpectations(s.T())
}

func (s *RecipeServiceTestSuite) TestCancelledRunIsStillLogged() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(workflow.Result{
		Status:       workflow.StatusError,
		ErrorMessage: recipe.Message(recipe.MsgGenerationError, recipe.LanguageEnglish),
		Cause:        context.Canceled,
	})
	live := mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })
	s.library.On("LogError", live, cookbook.ErrorTypeGeneration, mock.Anything, "req-3").Return()

	res, err := s.service.Generate(ctx, inbound.GenerateCommand{
		Ingredients: []string{"pasta", "tomato"},
		Difficulty:  recipe.DifficultyEasy,
		RequestID:   "req-3",
	})

	s.Require().NoError(err)
	s.Equal(inbound.StatusError, res.Status)
	s.library.AssertExpectations(s.T())
}

func (s *RecipeServiceTestSuite) TestGenerateRejectsUnknownDifficulty() {
	_, err := s.service.Generate(s.ctx, inbound.GenerateCommand{
		Ingredients: []string{"pasta"},
		Difficulty:  recipe.Difficulty("extreme"),
	})

	s.True(errors.Is(err, errors.CodeValidationFailed))
}

func (s *RecipeServiceTestSuite) TestModifyCombinesIngredients() {
	s.runner.On("Run", mock.Anything, []string{"pasta", "tomato", "cheese"}, recipe.DifficultyEasy, recipe.LanguageEnglish).
		Return(workflow.Result{Status: workflow.StatusError, ErrorMessage: "x"})
	s.library.On("LogError", mock.Anything, cookbook.ErrorTypeModification, mock.Anything, "req-3").Return()

	res, err := s.service.Modify(s.ctx, inbound.ModifyCommand{
		OriginalIngredients: []string{"pasta", "tomato"},
		NewIngredients:      []string{"cheese"},
		Difficulty:          recipe.DifficultyEasy,
		RequestID:           "req-3",
	})

	s.Require().NoError(err)
	s.Equal(inbound.StatusError, res.Status)
	s.Empty(res.ExtrasAdded)
	s.library.AssertExpectations(s.T())
}

func (s *RecipeServiceTestSuite) TestFeedbackRejected() {
	res, err := s.service.Feedback(s.ctx, inbound.FeedbackCommand{Approved: false, Language: recipe.LanguageTurkish})

	s.Require().NoError(err)
	s.Equal(inbound.StatusRejected, res.Status)
	s.Equal(recipe.Message(recipe.MsgFeedbackRejected, recipe.LanguageTurkish), res.Message)
	s.library.AssertNotCalled(s.T(), "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *RecipeServiceTestSuite) TestFeedbackApprovedIsSavedUnderBaseIngredients() {
	r := testutils.NewRecipeBuilder().WithName("Approved Pasta").Build()
	s.library.On("Save", mock.Anything, mock.MatchedBy(func(saved *recipe.Recipe) bool {
		return saved.Source() == recipe.SourceFeedback && saved.Name == "Approved Pasta"
	}), []string{"pasta", "tomato"}, recipe.DifficultyIntermediate, recipe.LanguageEnglish).Return(nil)

	res, err := s.service.Feedback(s.ctx, inbound.FeedbackCommand{
		Recipe:      r,
		Ingredients: []string{"pasta", "salt", "tomato"},
		Difficulty:  recipe.DifficultyIntermediate,
		Approved:    true,
	})

	s.Require().NoError(err)
	s.Equal(inbound.StatusSuccess, res.Status)
	s.Equal(recipe.Message(recipe.MsgFeedbackSuccess, recipe.LanguageEnglish), res.Message)
	s.Equal(recipe.SourceFeedback, res.Recipe.Source())
	s.library.AssertExpectations(s.T())
}

func (s *RecipeServiceTestSuite) TestFeedbackStorageFailure() {
	s.library.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("disk full"))
	s.library.On("LogError", mock.Anything, cookbook.ErrorTypeFeedback, "disk full", "req-4").Return()

	_, err := s.service.Feedback(s.ctx, inbound.FeedbackCommand{
		Recipe:      testutils.NewRecipeBuilder().Build(),
		Ingredients: []string{"pasta"},
		Difficulty:  recipe.DifficultyEasy,
		Approved:    true,
		RequestID:   "req-4",
	})

	var appErr *errors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(http.StatusInternalServerError, appErr.StatusCode())
	s.Equal(errors.CodeDatabaseError, appErr.Code)
	s.EqualError(appErr.Cause, "disk full")
	s.Equal(recipe.Message(recipe.MsgFeedbackSaveFailed, recipe.LanguageEnglish), appErr.Message)
	s.library.AssertExpectations(s.T())
}

func (s *RecipeServiceTestSuite) TestFeedbackInvalidRecipe() {
	_, err := s.service.Feedback(s.ctx, inbound.FeedbackCommand{
		Recipe:      &recipe.Recipe{Name: "No steps", Ingredients: []string{"pasta"}},
		Ingredients: []string{"pasta"},
		Approved:    true,
	})

	s.True(errors.Is(err, errors.CodeValidationFailed))
	s.True(stderrors.Is(err, recipe.ErrNoSteps))
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}
