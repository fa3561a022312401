package recipe

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// pantryDefaults are assumed to be in every kitchen, in both supported languages
var pantryDefaults = map[string]struct{}{
	// Basics
	"water": {}, "oil": {}, "olive oil": {}, "vegetable oil": {}, "salt": {}, "sugar": {},
	"su": {}, "yağ": {}, "zeytinyağı": {}, "sıvıyağ": {}, "tuz": {}, "şeker": {},

	// Spices
	"pepper": {}, "black pepper": {}, "paprika": {}, "red pepper flakes": {}, "cumin": {},
	"cinnamon": {}, "oregano": {}, "basil": {}, "thyme": {}, "rosemary": {},
	"garlic powder": {}, "onion powder": {},
	"biber": {}, "karabiber": {}, "kırmızıbiber": {}, "pul biber": {}, "kimyon": {},
	"tarçın": {}, "kekik": {}, "fesleğen": {}, "biberiye": {}, "sarımsak tozu": {}, "soğan tozu": {},
}

// PantryDefaults returns the always-available ingredients in sorted order
func PantryDefaults() []string {
	out := make([]string, 0, len(pantryDefaults))
	for name := range pantryDefaults {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// foldedPantry indexes pantryDefaults by pantryKey
var foldedPantry = func() map[string]struct{} {
	out := make(map[string]struct{}, len(pantryDefaults))
	for name := range pantryDefaults {
		out[pantryKey(name)] = struct{}{}
	}
	return out
}()

// pantryKey lower-cases and folds the Turkish dotted and dotless i to a plain i,
// so "KIRMIZIBIBER", "Kırmızıbiber" and "kırmızıbiber" share one key.
func pantryKey(ingredient string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'I', 'İ', 'ı':
			return 'i'
		}
		return unicode.ToLower(r)
	}, strings.TrimSpace(ingredient))
}

// IsPantryDefault reports whether the ingredient is always available
func IsPantryDefault(ingredient string) bool {
	_, ok := foldedPantry[pantryKey(ingredient)]
	return ok
}

// Normalize lower-cases and trims every ingredient
func Normalize(ingredients []string) []string {
	out := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		out = append(out, strings.ToLower(strings.TrimSpace(ing)))
	}
	return out
}

// FilterPantryDefaults drops pantry defaults and blank entries.
// Survivors keep their relative order and original casing.
func FilterPantryDefaults(ingredients []string) []string {
	out := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if strings.TrimSpace(ing) == "" || IsPantryDefault(ing) {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// ExactKey identifies a stored recipe by its ingredient set, difficulty and language
type ExactKey struct {
	Ingredients []string
	Difficulty  Difficulty
	Language    Language
}

// NewExactKey builds an order-insensitive key from request ingredients
func NewExactKey(ingredients []string, difficulty Difficulty, language Language) ExactKey {
	return ExactKey{
		Ingredients: SortedSet(ingredients),
		Difficulty:  difficulty,
		Language:    language,
	}
}

// IngredientKey is the canonical comma-joined ingredient list
func (k ExactKey) IngredientKey() string {
	return strings.Join(k.Ingredients, ",")
}

// String renders the full key
func (k ExactKey) String() string {
	return k.IngredientKey() + "|" + string(k.Difficulty) + "|" + string(k.Language)
}

// SortedSet normalizes, de-duplicates and sorts ingredients
func SortedSet(ingredients []string) []string {
	out := make([]string, 0, len(ingredients))
	for _, ing := range Normalize(ingredients) {
		if ing != "" {
			out = append(out, ing)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// EmbeddingText is the canonical text embedded for semantic lookups
func EmbeddingText(ingredients []string) string {
	return "Ingredients: " + strings.Join(SortedSet(ingredients), ", ")
}

// SanitizeIngredients keeps letters, digits, spaces, commas and dashes.
// Items that end up empty or reach MaxIngredientLength runes are dropped.
func SanitizeIngredients(ingredients []string) []string {
	out := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		clean := strings.TrimSpace(strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == ',' || r == '-' {
				return r
			}
			return -1
		}, ing))
		if clean == "" || utf8.RuneCountInString(clean) >= MaxIngredientLength {
			continue
		}
		out = append(out, clean)
	}
	return out
}
