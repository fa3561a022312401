// Package recipe provides the application layer for recipe generation and feedback
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/application/cookbook"
	"github.com/alchemorsel/pantrychef/internal/application/workflow"
	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/inbound"
	"github.com/alchemorsel/pantrychef/pkg/errors"
)

// Runner executes the recipe workflow
type Runner interface {
	Run(ctx context.Context, req workflow.Request) workflow.Result
}

// Library stores approved recipes and failure logs
type Library interface {
	Save(ctx context.Context, r *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) error
	LogError(ctx context.Context, errorType, message, requestID string)
}

// RecipeService implements the recipe use cases
type RecipeService struct {
	runner  Runner
	library Library
	logger  *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(runner Runner, library Library, logger *zap.Logger) *RecipeService {
	return &RecipeService{
		runner:  runner,
		library: library,
		logger:  logger.Named("recipe-service"),
	}
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// Generate produces a recipe for the given ingredients
func (s *RecipeService) Generate(ctx context.Context, cmd inbound.GenerateCommand) (*inbound.GenerationResult, error) {
	s.logger.Info("Generating recipe",
		zap.Strings("ingredients", cmd.Ingredients),
		zap.String("difficulty", string(cmd.Difficulty)),
		zap.String("request_id", cmd.RequestID),
	)

	return s.generate(ctx, cmd.Ingredients, cmd.Difficulty, cmd.Language, cmd.RequestID, cmd.Progress, cookbook.ErrorTypeGeneration)
}

// Modify reruns generation with the original and new ingredients combined
func (s *RecipeService) Modify(ctx context.Context, cmd inbound.ModifyCommand) (*inbound.GenerationResult, error) {
	ingredients := make([]string, 0, len(cmd.OriginalIngredients)+len(cmd.NewIngredients))
	ingredients = append(ingredients, cmd.OriginalIngredients...)
	ingredients = append(ingredients, cmd.NewIngredients...)

	s.logger.Info("Modifying recipe",
		zap.Strings("original", cmd.OriginalIngredients),
		zap.Strings("added", cmd.NewIngredients),
		zap.String("request_id", cmd.RequestID),
	)

	return s.generate(ctx, ingredients, cmd.Difficulty, cmd.Language, cmd.RequestID, nil, cookbook.ErrorTypeModification)
}

// Feedback stores an approved recipe so identical requests hit the cache
func (s *RecipeService) Feedback(ctx context.Context, cmd inbound.FeedbackCommand) (*inbound.FeedbackResult, error) {
	lang := cmd.Language.OrDefault()

	if !cmd.Approved {
		return &inbound.FeedbackResult{
			Status:  inbound.StatusRejected,
			Message: recipe.Message(recipe.MsgFeedbackRejected, lang),
		}, nil
	}

	if err := cmd.Recipe.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	base := recipe.FilterPantryDefaults(cmd.Ingredients)
	if len(base) == 0 {
		return nil, errors.NewMinIngredientsError(recipe.Message(recipe.MsgMinIngredients, lang)).WithCause(recipe.ErrMinIngredients)
	}

	approved := cmd.Recipe.Tag(recipe.SourceFeedback, cmd.Difficulty)
	if err := s.library.Save(ctx, approved, base, cmd.Difficulty, lang); err != nil {
		s.logger.Error("Failed to save feedback", zap.String("request_id", cmd.RequestID), zap.Error(err))
		s.library.LogError(context.WithoutCancel(ctx), cookbook.ErrorTypeFeedback, err.Error(), cmd.RequestID)
		return nil, errors.NewDatabaseError(recipe.Message(recipe.MsgFeedbackSaveFailed, lang), "save feedback recipe", err)
	}

	s.logger.Info("Feedback recipe saved", zap.String("name", approved.Name), zap.String("request_id", cmd.RequestID))
	return &inbound.FeedbackResult{
		Status:  inbound.StatusSuccess,
		Recipe:  approved,
		Message: recipe.Message(recipe.MsgFeedbackSuccess, lang),
	}, nil
}

func (s *RecipeService) generate(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language, requestID string, progress inbound.ProgressFunc, errorType string) (*inbound.GenerationResult, error) {
	lang := language.OrDefault()
	if !difficulty.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown difficulty %q", difficulty)).WithCause(recipe.ErrInvalidDifficulty)
	}
	if len(recipe.FilterPantryDefaults(ingredients)) == 0 {
		return nil, errors.NewMinIngredientsError(recipe.Message(recipe.MsgMinIngredients, lang)).WithCause(recipe.ErrMinIngredients)
	}

	req := workflow.Request{
		Ingredients: ingredients,
		Difficulty:  difficulty,
		Language:    lang,
	}
	if progress != nil {
		req.Observer = func(e workflow.Event) {
			progress(string(e.Step), e.Message, e.Iteration)
		}
	}

	res := s.runner.Run(ctx, req)
	if res.Status == workflow.StatusError {
		detail := res.ErrorMessage
		if res.Cause != nil {
			detail = fmt.Sprintf("%s: %v", detail, res.Cause)
		}
		s.logger.Warn("Recipe workflow failed",
			zap.String("request_id", requestID),
			zap.Int("iterations", res.Iterations),
			zap.Strings("extras", res.ExtrasAdded),
			zap.Error(res.Cause),
		)
		// written even when the client has disconnected
		s.library.LogError(context.WithoutCancel(ctx), errorType, detail, requestID)

		return &inbound.GenerationResult{
			Status:      inbound.StatusError,
			Message:     res.ErrorMessage,
			ExtrasAdded: nonNil(res.ExtrasAdded),
			Iterations:  res.Iterations,
		}, nil
	}

	return &inbound.GenerationResult{
		Status:      inbound.StatusSuccess,
		Recipe:      res.Recipe,
		Source:      res.Source,
		ExtrasAdded: nonNil(res.ExtrasAdded),
		Iterations:  res.Iterations,
	}, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
