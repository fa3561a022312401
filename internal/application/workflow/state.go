// Package workflow drives a single recipe request through lookup, generation and review.
//
// The orchestrator is a bounded finite-state machine. Each step reads the current State
// and returns a partial Update that is merged into a fresh State value, so a step can never
// drop a field it did not touch.
package workflow

import (
	"errors"
	"slices"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
)

// Step names a state of the machine
type Step string

const (
	StepSearchCache    Step = "search_cache"
	StepSemanticSearch Step = "semantic_search"
	StepWebSearch      Step = "web_search"
	StepGenerate       Step = "generate_recipe"
	StepReview         Step = "review_recipe"
	StepDone           Step = "done"
)

// ErrIllegalState is returned by State.Check when an error and a recipe are both set
var ErrIllegalState = errors.New("workflow state has both an error and a recipe")

// State is owned by one Run call and never shared across requests
type State struct {
	// RequestedIngredients drive lookups and prompts; they grow when extras are added
	RequestedIngredients []string
	// OriginalIngredients are the raw user input and are never mutated
	OriginalIngredients []string
	Difficulty          recipe.Difficulty
	Language            recipe.Language

	Recipe                *recipe.Recipe
	ExtraIngredientsAdded []string
	IterationCount        int
	Error                 string
	SourceStage           recipe.Source
}

// NewState creates the initial state for a request
func NewState(original []string, difficulty recipe.Difficulty, language recipe.Language) State {
	return State{
		RequestedIngredients:  recipe.FilterPantryDefaults(original),
		OriginalIngredients:   slices.Clone(original),
		Difficulty:            difficulty,
		Language:              language.OrDefault(),
		ExtraIngredientsAdded: []string{},
	}
}

// Update is a partial change produced by a step.
// Zero values mean "leave untouched"; use the Clear flags to reset a field.
type Update struct {
	Recipe      *recipe.Recipe
	Source      recipe.Source
	ClearRecipe bool

	// AddExtras are appended to both RequestedIngredients and ExtraIngredientsAdded
	AddExtras []string

	Iteration int

	Error      string
	ClearError bool
}

// Merge applies u to a copy of s
func (s State) Merge(u Update) State {
	next := s
	next.RequestedIngredients = slices.Clone(s.RequestedIngredients)
	next.OriginalIngredients = slices.Clone(s.OriginalIngredients)
	next.ExtraIngredientsAdded = slices.Clone(s.ExtraIngredientsAdded)
	if next.ExtraIngredientsAdded == nil {
		next.ExtraIngredientsAdded = []string{}
	}

	if u.ClearRecipe {
		next.Recipe = nil
		next.SourceStage = ""
	}
	if u.Recipe != nil {
		next.Recipe = u.Recipe.Clone()
		next.SourceStage = u.Source
	}
	if len(u.AddExtras) > 0 {
		next.RequestedIngredients = append(next.RequestedIngredients, u.AddExtras...)
		next.ExtraIngredientsAdded = append(next.ExtraIngredientsAdded, u.AddExtras...)
	}
	if u.Iteration > 0 {
		next.IterationCount = u.Iteration
	}
	if u.ClearError {
		next.Error = ""
	}
	if u.Error != "" {
		next.Error = u.Error
	}
	return next
}

// Check reports states that must never be observed between steps
func (s State) Check() error {
	if s.Error != "" && s.Recipe != nil {
		return ErrIllegalState
	}
	return nil
}

// Terminal reports whether the state already holds an outcome
func (s State) Terminal() bool {
	return s.Error != ""
}
