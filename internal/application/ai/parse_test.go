package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"chatter", "Here you go:\n{\"a\":1}\nEnjoy!", `{"a":1}`},
		{"no object", "NO_RECIPE", "NO_RECIPE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestDecodeVerdictRequiresValidField(t *testing.T) {
	_, err := decodeVerdict(`{"reasoning": "hm"}`)
	assert.Error(t, err)

	v, err := decodeVerdict(`{"valid": false, "reasoning": "no", "suggested_extras": ["garlic"]}`)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, []string{"garlic"}, v.SuggestedExtras)
}

func TestPreviewKeepsRunes(t *testing.T) {
	long := strings.Repeat("ş", 250)
	assert.Len(t, []rune(preview(long)), rawPreviewLength)
	assert.Equal(t, "short", preview("short"))
}

func TestBuildQueryIsBounded(t *testing.T) {
	ings := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ings = append(ings, "ingredient")
	}
	q := buildQuery(ings, recipe.DifficultyHard)
	assert.True(t, strings.HasPrefix(q, "hard recipe using only ingredient, "))
	assert.Len(t, []rune(q), maxQueryLength)
}

func TestGenerationPromptLanguage(t *testing.T) {
	p := buildGenerationPrompt([]string{"patlıcan"}, recipe.DifficultyIntermediate, recipe.LanguageTurkish)
	assert.Contains(t, p, "Language: TR")
	assert.Contains(t, p, "patlıcan")
	assert.Contains(t, p, "INTERMEDIATE")
}
