// Package recipe contains the core domain model for ingredient-driven recipes.
// A Recipe is a value produced by a lookup or an LLM and judged before it is returned.
package recipe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Schema limits applied to recipes accepted from clients
const (
	MaxNameLength       = 100
	MaxIngredientItems  = 50
	MaxStepItems        = 100
	MaxItemLength       = 200
	MaxIngredientLength = 50
)

// Metadata keys every stored recipe is expected to carry
const (
	MetaDifficulty = "difficulty"
	MetaSource     = "source"
)

// Recipe represents a cooking recipe as produced by a workflow stage
type Recipe struct {
	Name        string         `json:"name"`
	Ingredients []string       `json:"ingredients"`
	Steps       []string       `json:"steps"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Complete reports whether the recipe has a name, ingredients and steps
func (r *Recipe) Complete() bool {
	if r == nil {
		return false
	}
	return strings.TrimSpace(r.Name) != "" && len(nonEmpty(r.Ingredients)) > 0 && len(nonEmpty(r.Steps)) > 0
}

// CheckComplete returns a descriptive error for the first missing part
func (r *Recipe) CheckComplete() error {
	switch {
	case r == nil:
		return ErrNoRecipe
	case strings.TrimSpace(r.Name) == "":
		return ErrNameRequired
	case len(nonEmpty(r.Ingredients)) == 0:
		return ErrNoIngredients
	case len(nonEmpty(r.Steps)) == 0:
		return ErrNoSteps
	}
	return nil
}

// Validate applies the full schema limits
func (r *Recipe) Validate() error {
	if err := r.CheckComplete(); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(r.Ingredients) > MaxIngredientItems {
		return fmt.Errorf("%w: at most %d ingredients", ErrTooManyItems, MaxIngredientItems)
	}
	if len(r.Steps) > MaxStepItems {
		return fmt.Errorf("%w: at most %d steps", ErrTooManyItems, MaxStepItems)
	}
	for _, list := range [][]string{r.Ingredients, r.Steps} {
		for i, item := range list {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("%w: item %d is empty", ErrInvalidItem, i)
			}
			if utf8.RuneCountInString(item) > MaxItemLength {
				return fmt.Errorf("%w: item %d exceeds %d characters", ErrInvalidItem, i, MaxItemLength)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so stages never share slices or maps
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	out := &Recipe{
		Name:        r.Name,
		Ingredients: append([]string(nil), r.Ingredients...),
		Steps:       append([]string(nil), r.Steps...),
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Tag returns a copy of the recipe with the source and difficulty metadata set.
// A difficulty already present in the metadata is normalized rather than replaced.
func (r *Recipe) Tag(source Source, difficulty Difficulty) *Recipe {
	out := r.Clone()
	if out == nil {
		return nil
	}
	if out.Metadata == nil {
		out.Metadata = make(map[string]any, 2)
	}
	out.Metadata[MetaSource] = string(source)
	if existing, ok := out.Metadata[MetaDifficulty].(string); ok && existing != "" {
		out.Metadata[MetaDifficulty] = string(NormalizeDifficulty(existing))
	} else {
		out.Metadata[MetaDifficulty] = string(difficulty)
	}
	return out
}

// Source returns the source tag stored in the metadata
func (r *Recipe) Source() Source {
	if r == nil || r.Metadata == nil {
		return ""
	}
	s, _ := r.Metadata[MetaSource].(string)
	return Source(s)
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
