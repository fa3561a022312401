package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// Sampling temperatures per stage
const (
	GenerationTemperature = 0.7
	ReviewTemperature     = 0.0
	SearchTemperature     = 0.1
)

// Generator produces a fresh recipe with the LLM
type Generator struct {
	llm    outbound.LLMService
	logger *zap.Logger
}

// NewGenerator creates a generation stage
func NewGenerator(llm outbound.LLMService, logger *zap.Logger) *Generator {
	return &Generator{llm: llm, logger: logger.Named("generator")}
}

// Generate returns a complete recipe or a *GenerationError
func (g *Generator) Generate(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error) {
	clean := recipe.SanitizeIngredients(ingredients)
	if len(clean) == 0 {
		return nil, &GenerationError{Reason: "no valid ingredients after sanitization", Err: recipe.ErrMinIngredients}
	}

	content, err := g.llm.Complete(ctx, outbound.Prompt{
		System:      chefSystem,
		User:        buildGenerationPrompt(clean, difficulty, language.OrDefault()),
		Temperature: GenerationTemperature,
		Purpose:     PurposeGenerate,
	})
	if err != nil {
		return nil, &GenerationError{Reason: "llm call failed", Err: err}
	}

	generated, err := decodeRecipe(content)
	if err != nil {
		return nil, &GenerationError{Reason: "failed to parse recipe JSON", Raw: preview(content), Err: err}
	}
	if err := generated.CheckComplete(); err != nil {
		return nil, &GenerationError{Reason: "incomplete recipe", Raw: preview(content), Err: err}
	}

	g.logger.Debug("recipe generated",
		zap.String("name", generated.Name),
		zap.Int("ingredients", len(generated.Ingredients)),
		zap.Int("steps", len(generated.Steps)),
	)
	return generated, nil
}
