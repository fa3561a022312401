// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Ingredients returns n distinct lower-case ingredients that are not pantry defaults
func (f *RecipeFactory) Ingredients(n int) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		var candidate string
		switch f.faker.Number(0, 2) {
		case 0:
			candidate = f.faker.Vegetable()
		case 1:
			candidate = f.faker.Fruit()
		default:
			candidate = f.faker.Noun()
		}
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" || recipe.IsPantryDefault(candidate) {
			continue
		}
		if _, ok := seen[candidate]; ok {
			candidate = fmt.Sprintf("%s %d", candidate, len(out))
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

// Recipe creates a complete recipe using the given ingredients
func (f *RecipeFactory) Recipe(ingredients ...string) *recipe.Recipe {
	if len(ingredients) == 0 {
		ingredients = f.Ingredients(3)
	}
	return NewRecipeBuilder().
		WithName(strings.Title(f.faker.Adjective()) + " " + strings.Title(ingredients[0])).
		WithIngredients(ingredients...).
		WithSteps(f.faker.Sentence(8), f.faker.Sentence(6), f.faker.Sentence(7)).
		Build()
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	name        string
	ingredients []string
	steps       []string
	metadata    map[string]any
}

// NewRecipeBuilder creates a new recipe builder with default values
func NewRecipeBuilder() *RecipeBuilder {
	faker := gofakeit.New(time.Now().UnixNano())

	return &RecipeBuilder{
		name:        faker.Sentence(3),
		ingredients: []string{"200g pasta", "2 tomatoes"},
		steps:       []string{"Boil the pasta.", "Add the tomatoes."},
	}
}

// WithName sets the recipe name
func (rb *RecipeBuilder) WithName(name string) *RecipeBuilder {
	rb.name = name
	return rb
}

// WithIngredients sets the ingredient lines
func (rb *RecipeBuilder) WithIngredients(ingredients ...string) *RecipeBuilder {
	rb.ingredients = ingredients
	return rb
}

// WithSteps sets the steps
func (rb *RecipeBuilder) WithSteps(steps ...string) *RecipeBuilder {
	rb.steps = steps
	return rb
}

// WithMetadata sets a metadata entry
func (rb *RecipeBuilder) WithMetadata(key string, value any) *RecipeBuilder {
	if rb.metadata == nil {
		rb.metadata = make(map[string]any)
	}
	rb.metadata[key] = value
	return rb
}

// Build creates the recipe
func (rb *RecipeBuilder) Build() *recipe.Recipe {
	r := &recipe.Recipe{
		Name:        rb.name,
		Ingredients: append([]string(nil), rb.ingredients...),
		Steps:       append([]string(nil), rb.steps...),
	}
	if rb.metadata != nil {
		r.Metadata = make(map[string]any, len(rb.metadata))
		for k, v := range rb.metadata {
			r.Metadata[k] = v
		}
	}
	return r
}
