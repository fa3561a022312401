// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
)

// RecipeService defines the recipe use cases exposed to HTTP handlers
type RecipeService interface {
	Generate(ctx context.Context, cmd GenerateCommand) (*GenerationResult, error)
	Modify(ctx context.Context, cmd ModifyCommand) (*GenerationResult, error)
	Feedback(ctx context.Context, cmd FeedbackCommand) (*FeedbackResult, error)
}

// ProgressFunc receives localized progress messages while a recipe is being produced
type ProgressFunc func(step, message string, iteration int)

// GenerateCommand contains data for generating a recipe
type GenerateCommand struct {
	Ingredients []string
	Difficulty  recipe.Difficulty
	Language    recipe.Language
	RequestID   string
	Progress    ProgressFunc
}

// ModifyCommand regenerates a recipe from the original plus new ingredients
type ModifyCommand struct {
	OriginalIngredients []string
	NewIngredients      []string
	Difficulty          recipe.Difficulty
	Language            recipe.Language
	RequestID           string
}

// FeedbackCommand records whether the user accepted a recipe
type FeedbackCommand struct {
	Recipe      *recipe.Recipe
	Ingredients []string
	Difficulty  recipe.Difficulty
	Language    recipe.Language
	Approved    bool
	RequestID   string
}

// Result statuses
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
)

// GenerationResult is the outcome of a generate or modify call
type GenerationResult struct {
	Status      string         `json:"status"`
	Recipe      *recipe.Recipe `json:"recipe,omitempty"`
	Source      recipe.Source  `json:"source,omitempty"`
	Message     string         `json:"message,omitempty"`
	ExtrasAdded []string       `json:"extra_ingredients_added"`
	Iterations  int            `json:"iterations"`
}

// FeedbackResult is the outcome of a feedback call
type FeedbackResult struct {
	Status  string         `json:"status"`
	Recipe  *recipe.Recipe `json:"recipe,omitempty"`
	Message string         `json:"message"`
}
