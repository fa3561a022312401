// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// RecipeRepository implements outbound.RecipeStore using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

var _ outbound.RecipeStore = (*RecipeRepository)(nil)

// FindExact finds the recipe stored under the exact key
func (r *RecipeRepository) FindExact(ctx context.Context, key recipe.ExactKey) (*recipe.Recipe, error) {
	var model RecipeModel

	result := r.db.WithContext(ctx).
		Where("ingredient_key = ? AND difficulty = ? AND language = ?",
			key.IngredientKey(), string(key.Difficulty), string(key.Language)).
		First(&model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, recipe.ErrRecipeNotFound
		}
		return nil, result.Error
	}

	return ModelToRecipe(&model), nil
}

// FindNearest returns the stored recipe closest to the query embedding.
// Postgres orders by the pgvector L2 operator; other dialects scan candidates.
func (r *RecipeRepository) FindNearest(ctx context.Context, query outbound.NearestQuery) (*recipe.Recipe, float64, error) {
	if len(query.Embedding) == 0 {
		return nil, 0, fmt.Errorf("empty query embedding")
	}

	base := r.db.WithContext(ctx).
		Where("difficulty = ? AND language = ? AND embedding IS NOT NULL AND embedding_dims = ?",
			string(query.Difficulty), string(query.Language), len(query.Embedding))

	var candidates []RecipeModel
	if r.db.Dialector.Name() == "postgres" {
		base = base.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{pgvector.NewVector(query.Embedding)}},
		}).Limit(1)
	}
	if err := base.Find(&candidates).Error; err != nil {
		return nil, 0, err
	}

	var (
		best     *RecipeModel
		bestDist = math.Inf(1)
	)
	for i := range candidates {
		if candidates[i].Embedding == nil {
			continue
		}
		d := l2Distance(query.Embedding, candidates[i].Embedding.Slice())
		if d < bestDist {
			best, bestDist = &candidates[i], d
		}
	}
	if best == nil {
		return nil, 0, recipe.ErrRecipeNotFound
	}

	return ModelToRecipe(best), bestDist, nil
}

// Save stores a recipe; an existing recipe under the same key is kept
func (r *RecipeRepository) Save(ctx context.Context, stored outbound.StoredRecipe) error {
	if stored.Recipe == nil {
		return recipe.ErrNoRecipe
	}

	model := StoredToModel(stored)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ingredient_key"}, {Name: "difficulty"}, {Name: "language"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("saving recipe %q: %w", stored.Recipe.Name, result.Error)
	}
	return nil
}

// Count returns the number of stored recipes
func (r *RecipeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RecipeModel{}).Count(&count).Error
	return count, err
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
