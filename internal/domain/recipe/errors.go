package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Structural validation errors
	ErrNoRecipe      = errors.New("recipe is missing")
	ErrNameRequired  = errors.New("recipe name is required")
	ErrNameTooLong   = errors.New("recipe name must not exceed 100 characters")
	ErrNoIngredients = errors.New("recipe must have at least one ingredient")
	ErrNoSteps       = errors.New("recipe must have at least one step")
	ErrTooManyItems  = errors.New("recipe has too many items")
	ErrInvalidItem   = errors.New("recipe item is invalid")

	// Request errors
	ErrInvalidDifficulty = errors.New("difficulty must be one of easy, intermediate, hard")
	ErrInvalidLanguage   = errors.New("language must be one of en, tr")
	ErrMinIngredients    = errors.New("at least one non-default ingredient is required")

	// Store errors
	ErrRecipeNotFound = errors.New("recipe not found")
)
