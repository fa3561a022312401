package gorm

import (
	"github.com/google/uuid"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// StoredToModel converts a recipe and its lookup keys to a GORM model
func StoredToModel(stored outbound.StoredRecipe) *RecipeModel {
	r := stored.Recipe
	model := &RecipeModel{
		ID:            uuid.New(),
		IngredientKey: stored.Key.IngredientKey(),
		Difficulty:    string(stored.Key.Difficulty),
		Language:      string(stored.Key.Language),
		Name:          r.Name,
		Ingredients:   StringSlice(append([]string(nil), r.Ingredients...)),
		Steps:         StringSlice(append([]string(nil), r.Steps...)),
		Metadata:      JSONField{},
		Source:        string(r.Source()),
		Embedding:     NewVector(stored.Embedding),
		EmbeddingDims: len(stored.Embedding),
	}
	for k, v := range r.Metadata {
		model.Metadata[k] = v
	}
	return model
}

// ModelToRecipe converts a GORM model back to a domain recipe
func ModelToRecipe(model *RecipeModel) *recipe.Recipe {
	r := &recipe.Recipe{
		Name:        model.Name,
		Ingredients: append([]string(nil), model.Ingredients...),
		Steps:       append([]string(nil), model.Steps...),
		Metadata:    make(map[string]any, len(model.Metadata)),
	}
	for k, v := range model.Metadata {
		r.Metadata[k] = v
	}
	if _, ok := r.Metadata[recipe.MetaDifficulty]; !ok {
		r.Metadata[recipe.MetaDifficulty] = model.Difficulty
	}
	return r
}

// ErrorLogToModel converts an error log entry
func ErrorLogToModel(entry outbound.ErrorLogEntry) *ErrorLogModel {
	return &ErrorLogModel{
		Type:      entry.Type,
		Message:   entry.Message,
		RequestID: entry.RequestID,
		CreatedAt: entry.CreatedAt,
	}
}
