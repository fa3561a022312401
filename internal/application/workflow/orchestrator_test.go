package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/pantrychef/internal/application/workflow"
	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/test/testutils"
)

type OrchestratorTestSuite struct {
	suite.Suite
	cookbook  *testutils.MockCookbook
	web       *testutils.MockWebSearcher
	generator *testutils.MockGenerator
	validator *testutils.MockValidator
	orch      *workflow.Orchestrator
	ctx       context.Context
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.cookbook = testutils.NewMockCookbook()
	s.web = &testutils.MockWebSearcher{}
	s.generator = &testutils.MockGenerator{}
	s.validator = &testutils.MockValidator{}
	s.ctx = context.Background()
	s.orch = workflow.New(workflow.Stages{
		Exact:     s.cookbook,
		Semantic:  s.cookbook,
		Web:       s.web,
		Generator: s.generator,
		Validator: s.validator,
		Persister: s.cookbook,
	}, workflow.DefaultOptions(), zaptest.NewLogger(s.T()), nil)
}

func (s *OrchestratorTestSuite) request(ingredients ...string) workflow.Request {
	return workflow.Request{
		Ingredients: ingredients,
		Difficulty:  recipe.DifficultyEasy,
		Language:    recipe.LanguageEnglish,
	}
}

func (s *OrchestratorTestSuite) missAll() {
	s.cookbook.SetupMissBehavior()
	s.web.On("SearchWeb", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
}

func pasta(name string) *recipe.Recipe {
	return testutils.NewRecipeBuilder().
		WithName(name).
		WithIngredients("200g pasta", "2 tomatoes").
		WithSteps("Boil the pasta.", "Add the tomatoes.").
		Build()
}

func (s *OrchestratorTestSuite) TestExactHitSkipsReview() {
	s.cookbook.On("LookupExact", mock.Anything, []string{"pasta", "tomato"}, recipe.DifficultyEasy, recipe.LanguageEnglish).
		Return(pasta("Cached Pasta"), nil)

	res := s.orch.Run(s.ctx, s.request("pasta", "tomato"))

	s.Equal(workflow.StatusSuccess, res.Status)
	s.Require().NotNil(res.Recipe)
	s.Equal("Cached Pasta", res.Recipe.Name)
	s.Equal(recipe.SourceCache, res.Source)
	s.Equal(recipe.SourceCache, res.Recipe.Source())
	s.Equal(1, res.Iterations)
	s.Empty(res.ExtrasAdded)
	s.validator.AssertNotCalled(s.T(), "Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.generator.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.Empty(s.cookbook.Persisted(), "cache hits are not persisted again")
}

func (s *OrchestratorTestSuite) TestSemanticHitSkipsReview() {
	s.cookbook.On("LookupExact", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	s.cookbook.On("LookupSemantic", mock.Anything, mock.Anything, mock.Anything, mock.Anything, 0.55).
		Return(pasta("Nearby Pasta"), nil)

	res := s.orch.Run(s.ctx, s.request("pasta", "tomato"))

	s.Equal(workflow.StatusSuccess, res.Status)
	s.Equal(recipe.SourceSemantic, res.Source)
	s.Equal(1, res.Iterations)
	s.validator.AssertNotCalled(s.T(), "Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.Empty(s.cookbook.Persisted())
}

func (s *OrchestratorTestSuite) TestLookupFailuresDegradeToMiss() {
	s.cookbook.On("LookupExact", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))
	s.cookbook.On("LookupSemantic", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))
	s.web.On("SearchWeb", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))
	s.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(pasta("Fresh Pasta"), nil)
	s.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, recipe.SourceGenerate).
		Return(recipe.Verdict{Valid: true})

	res := s.orch.Run(s.ctx, s.request("pasta", "tomato"))

	s.Equal(workflow.StatusSuccess, res.Status)
	s.Equal(recipe.SourceGenerate, res.Source)
	s.NoError(res.Cause)
}

func (s *OrchestratorTestSuite) TestWebHitIsReviewed() {
	s.cookbook.SetupMissBehavior()
	s.web.On("SearchWeb", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(pasta("Web Pasta"), nil)
	s.validator.On("Validate", mock.Anything, mock.Anything, []string{"pasta", "tomato"}, recipe.DifficultyEasy, recipe.LanguageEnglish, recipe.SourceWeb).
		Return(recipe.Verdict{Valid: true})

	res := s.orch.Run(s.ctx, s.request("pasta", "tomato"))

	s.Equal(workflow.StatusSuccess, res.Status)
	s.Equal(recipe.SourceWeb, res.Source)
	s.validator.AssertNumberOfCalls(s.T(), "Validate", 1)
	s.Require().Len(s.cookbook.Persisted(), 1)
	s.Equal([]string{"pasta", "tomato"}, s.cookbook.Persisted()[0].Ingredients)
}

func (s *OrchestratorTestSuite) TestFirstGenerationAccepted() {
	s.missAll()
	s.generator.On("Generate", mock.Anything, []string{"pasta", "tomato"}, recipe.DifficultyEasy, recipe.LanguageEnglish).
		Return(pasta("Fresh Pasta"), nil)
	s.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, recipe.SourceGenerate).
		Return(recipe.Verdict{Valid: true})

	res := s.orch.Run(s.ctx, s.request("pasta", "tomato", "salt", "water"))

	s.Equal(workflow.StatusSuccess, res.Status)
	s.Equal("Fresh Pasta", res.Recipe.Name)
	s.Equal(1, res.Iterations)
	s.Empty(res.ExtrasAdded)
	s.Equal(string(recipe.DifficultyEasy), res.Recipe.Metadata[recipe.MetaDifficulty])
	testutils.NewRecipeAssertions(s.T()).HasSource(res.Recipe, recipe.SourceGenerate)
	s.Require().Len(s.cookbook.Persisted(), 1)
	s.Equal([]string{"pasta", "tomato"}, s.cookbook.Persisted()[0].Ingredients)
}

func (s *OrchestratorTestSuite) TestSuggestedExtrasAreAdded() {
	s.missAll()
	s.generator.On("Generate", mock.Anything, []string{"pasta", "tomato"}, mock.Anything, mock.Anything).
		Return(pasta("Plain Pasta"), nil).Once()
	s.generator.On("Generate", mock.Anything, []string{"pasta", "tomato", "garlic", "basil"}, mock.Anything, mock.Anything).
		Return(pasta("Garlic Basil Pasta"), nil).Once()
	s.validator.On("Validate", mock.Anything, mock.MatchedBy(func(r *recipe.Recipe) bool { return r.Name == "Plain Pasta" }),
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recipe.Verdict{Valid: false, Reasoning: "bland", SuggestedExtras: []string{"garlic", "basil"}})
	s.validator.On("Validate", mock.Anything, mock.MatchedBy(func(r *recipe.Recipe) bool { return r.Name == "Garlic Basil Pasta" }),
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recipe.Verdict{Valid: true})

	res := s.orch.Run(s.ctx, s.request("pasta", "tomato"))

	s.Equal(workflow.StatusSuccess, res.Status)
	s.Equal("Garlic Basil Pasta", res.Recipe.Name)
	s.Equal([]string{"garlic", "basil"}, res.ExtrasAdded)
	s.Equal([]string{"pasta", "tomato", "garlic", "basil"}, res.Ingredients)
	s.Equal(2, res.Iterations)
	s.Require().Len(s.cookbook.Persisted(), 1)
	s.Equal([]string{"pasta", "tomato"}, s.cookbook.Persisted()[0].Ingredients, "persisted under the base ingredients")
}

func (s *OrchestratorTestSuite) TestExtrasNeverExceedBudget() {
	s.missAll()
	s.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(pasta("Pasta"), nil)
	s.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recipe.Verdict{Valid: false, SuggestedExtras: []string{"garlic"}}).Once()
	s.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recipe.Verdict{Valid: false, SuggestedExtras: []string{"basil", "lemon"}}).Once()
	s.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recipe.Verdict{Valid: true}).Once()

	res := s.orch.Run(s.ctx, s.request("pasta"))

	s.Equal(workflow.StatusSuccess, res.Status)
	s.Equal([]string{"garlic", "basil"}, res.ExtrasAdded)
	s.Equal(3, res.Iterations)
}

func (s *OrchestratorTestSuite) TestRepeatedRejectionEndsInNotFound() {
	s.missAll()
	s.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(pasta("Pasta"), nil)
	s.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recipe.Verdict{Valid: false, Reasoning: "missing steps"})

	res := s.orch.Run(s.ctx, s.request("pasta", "tomato"))

	s.Equal(workflow.StatusError, res.Status)
	s.Nil(res.Recipe)
	s.Equal(recipe.Message(recipe.MsgRecipeNotFound, recipe.LanguageEnglish), res.ErrorMessage)
	s.Equal(3, res.Iterations)
	s.generator.AssertNumberOfCalls(s.T(), "Generate", 3)
	s.validator.AssertNumberOfCalls(s.T(), "Validate", 3)
	s.Empty(s.cookbook.Persisted())
}

func (s *OrchestratorTestSuite) TestGenerationErrorIsTerminal() {
	s.missAll()
	cause := errors.New("invalid JSON")
	s.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, cause)

	res := s.orch.Run(s.ctx, workflow.Request{
		Ingredients: []string{"patlıcan"},
		Difficulty:  recipe.DifficultyHard,
		Language:    recipe.LanguageTurkish,
	})

	s.Equal(workflow.StatusError, res.Status)
	s.Equal(recipe.Message(recipe.MsgGenerationError, recipe.LanguageTurkish), res.ErrorMessage)
	s.ErrorIs(res.Cause, cause)
	s.validator.AssertNotCalled(s.T(), "Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *OrchestratorTestSuite) TestOnlyPantryDefaults() {
	res := s.orch.Run(s.ctx, s.request("salt", "Water", " oil "))

	s.Equal(workflow.StatusError, res.Status)
	s.Equal(recipe.Message(recipe.MsgMinIngredients, recipe.LanguageEnglish), res.ErrorMessage)
	s.ErrorIs(res.Cause, recipe.ErrMinIngredients)
	s.cookbook.AssertNotCalled(s.T(), "LookupExact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *OrchestratorTestSuite) TestCancelledContextStops() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	res := s.orch.Run(ctx, s.request("pasta"))

	s.Equal(workflow.StatusError, res.Status)
	s.ErrorIs(res.Cause, context.Canceled)
	s.cookbook.AssertNotCalled(s.T(), "LookupExact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *OrchestratorTestSuite) TestObserverReceivesProgress() {
	s.missAll()
	s.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(pasta("Pasta"), nil)
	s.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recipe.Verdict{Valid: true})

	var steps []workflow.Step
	req := s.request("pasta")
	req.Observer = func(e workflow.Event) {
		s.NotEmpty(e.Message)
		steps = append(steps, e.Step)
	}
	s.orch.Run(s.ctx, req)

	s.Equal([]workflow.Step{
		workflow.StepSearchCache,
		workflow.StepSemanticSearch,
		workflow.StepWebSearch,
		workflow.StepGenerate,
		workflow.StepReview,
	}, steps)
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

// alwaysInvalid rejects everything and always suggests new ingredients
type alwaysInvalid struct{ calls int }

func (a *alwaysInvalid) Validate(context.Context, *recipe.Recipe, []string, recipe.Difficulty, recipe.Language, recipe.Source) recipe.Verdict {
	a.calls++
	return recipe.Verdict{SuggestedExtras: []string{"extra-a", "extra-b", "extra-c"}}
}

type countingGenerator struct{ calls int }

func (g *countingGenerator) Generate(context.Context, []string, recipe.Difficulty, recipe.Language) (*recipe.Recipe, error) {
	g.calls++
	return pasta("Pasta"), nil
}

type missCookbook struct{}

func (missCookbook) LookupExact(context.Context, []string, recipe.Difficulty, recipe.Language) (*recipe.Recipe, error) {
	return nil, nil
}

func (missCookbook) LookupSemantic(context.Context, []string, recipe.Difficulty, recipe.Language, float64) (*recipe.Recipe, error) {
	return nil, nil
}

func TestRunIsBoundedForAnyBudget(t *testing.T) {
	for _, opts := range []workflow.Options{
		{MaxIterations: 1, MaxExtras: 0, SemanticThreshold: 0.5},
		{MaxIterations: 3, MaxExtras: 2, SemanticThreshold: 0.5},
		{MaxIterations: 10, MaxExtras: 1, SemanticThreshold: 0.5},
		{MaxIterations: 12, MaxExtras: 20, SemanticThreshold: 0.5},
	} {
		validator := &alwaysInvalid{}
		generator := &countingGenerator{}
		orch := workflow.New(workflow.Stages{
			Exact:     missCookbook{},
			Semantic:  missCookbook{},
			Generator: generator,
			Validator: validator,
		}, opts, nil, nil)

		res := orch.Run(context.Background(), workflow.Request{Ingredients: []string{"pasta"}, Difficulty: recipe.DifficultyEasy})

		require.Equal(t, workflow.StatusError, res.Status)
		assert.Equal(t, opts.MaxIterations, generator.calls)
		assert.Equal(t, opts.MaxIterations, validator.calls)
		assert.LessOrEqual(t, len(res.ExtrasAdded), opts.MaxExtras)
		assert.LessOrEqual(t, res.Iterations, opts.MaxIterations)
		assert.NoError(t, res.Cause)
	}
}

func TestStateMerge(t *testing.T) {
	st := workflow.NewState([]string{"pasta", "salt"}, recipe.DifficultyEasy, "")
	assert.Equal(t, []string{"pasta"}, st.RequestedIngredients)
	assert.Equal(t, []string{"pasta", "salt"}, st.OriginalIngredients)
	assert.Equal(t, recipe.LanguageEnglish, st.Language)

	next := st.Merge(workflow.Update{Iteration: 1, Recipe: pasta("P"), Source: recipe.SourceGenerate})
	assert.Equal(t, 1, next.IterationCount)
	assert.Equal(t, recipe.SourceGenerate, next.SourceStage)
	assert.Nil(t, st.Recipe, "merge does not mutate the receiver")

	next = next.Merge(workflow.Update{ClearRecipe: true, AddExtras: []string{"garlic"}})
	assert.Nil(t, next.Recipe)
	assert.Equal(t, 1, next.IterationCount, "untouched fields survive")
	assert.Equal(t, []string{"pasta", "garlic"}, next.RequestedIngredients)
	assert.Equal(t, []string{"garlic"}, next.ExtraIngredientsAdded)
	assert.Equal(t, []string{"pasta", "salt"}, next.OriginalIngredients)

	bad := next.Merge(workflow.Update{Recipe: pasta("P"), Error: "boom"})
	assert.ErrorIs(t, bad.Check(), workflow.ErrIllegalState)
	assert.NoError(t, bad.Merge(workflow.Update{ClearError: true}).Check())
}
