package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
)

// rawPreviewLength bounds the raw LLM output kept in errors
const rawPreviewLength = 200

// stripFences removes markdown code fences around a JSON payload
func stripFences(content string) string {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	// Tolerate chatter around the object
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}
	return cleaned
}

// decodeRecipe parses an LLM recipe object
func decodeRecipe(content string) (*recipe.Recipe, error) {
	var out recipe.Recipe
	if err := json.Unmarshal([]byte(stripFences(content)), &out); err != nil {
		return nil, fmt.Errorf("decoding recipe JSON: %w", err)
	}
	return &out, nil
}

// decodeVerdict parses a reviewer verdict
func decodeVerdict(content string) (recipe.Verdict, error) {
	var out struct {
		Valid           *bool    `json:"valid"`
		Reasoning       string   `json:"reasoning"`
		SuggestedExtras []string `json:"suggested_extras"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &out); err != nil {
		return recipe.Verdict{}, fmt.Errorf("decoding verdict JSON: %w", err)
	}
	if out.Valid == nil {
		return recipe.Verdict{}, fmt.Errorf("verdict has no valid field")
	}
	return recipe.Verdict{
		Valid:           *out.Valid,
		Reasoning:       out.Reasoning,
		SuggestedExtras: out.SuggestedExtras,
	}, nil
}

// preview truncates raw output on a rune boundary
func preview(content string) string {
	if utf8.RuneCountInString(content) <= rawPreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:rawPreviewLength])
}
