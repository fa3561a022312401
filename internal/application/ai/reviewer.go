package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// Reviewer judges candidate recipes with the LLM
type Reviewer struct {
	llm    outbound.LLMService
	logger *zap.Logger
}

// NewReviewer creates a review stage
func NewReviewer(llm outbound.LLMService, logger *zap.Logger) *Reviewer {
	return &Reviewer{llm: llm, logger: logger.Named("reviewer")}
}

// Validate never fails; LLM or parse failures produce an invalid verdict
func (r *Reviewer) Validate(ctx context.Context, candidate *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language, source recipe.Source) recipe.Verdict {
	if source.PreValidated() {
		return recipe.Verdict{Valid: true, Reasoning: "stored recipes were validated before saving", SuggestedExtras: []string{}}
	}
	if err := candidate.CheckComplete(); err != nil {
		return recipe.Rejected("recipe is incomplete: " + err.Error())
	}

	content, err := r.llm.Complete(ctx, outbound.Prompt{
		System:      reviewerSystem,
		User:        buildReviewPrompt(candidate, ingredients, difficulty, source),
		Temperature: ReviewTemperature,
		Purpose:     PurposeReview,
	})
	if err != nil {
		r.logger.Warn("review call failed", zap.Error(err))
		return recipe.Rejected("validation error: " + err.Error())
	}

	verdict, err := decodeVerdict(content)
	if err != nil {
		r.logger.Warn("malformed review output", zap.Error(err), zap.String("raw", preview(content)))
		return recipe.Rejected("reviewer failed to provide a valid JSON response")
	}

	verdict.SuggestedExtras = capExtras(verdict.SuggestedExtras)
	if verdict.Valid {
		verdict.SuggestedExtras = []string{}
	}
	return verdict
}

func capExtras(extras []string) []string {
	out := make([]string, 0, recipe.MaxSuggestedExtras)
	for _, e := range extras {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		out = append(out, e)
		if len(out) == recipe.MaxSuggestedExtras {
			break
		}
	}
	return out
}
