package recipe

import "strings"

// Difficulty is the requested recipe complexity tier
type Difficulty string

const (
	DifficultyEasy         Difficulty = "easy"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyHard         Difficulty = "hard"
)

// Difficulties lists the tiers in ascending order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyIntermediate, DifficultyHard}

// ParseDifficulty accepts exactly one of the three tiers
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", ErrInvalidDifficulty
	}
	return d, nil
}

// NormalizeDifficulty maps free-form labels onto a tier, defaulting to easy
func NormalizeDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate", "medium", "moderate", "orta":
		return DifficultyIntermediate
	case "hard", "difficult", "advanced", "zor":
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

// Valid reports whether d is a known tier
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyIntermediate, DifficultyHard:
		return true
	}
	return false
}

// Guidance returns the prompt rubric for the tier
func (d Difficulty) Guidance() string {
	switch d {
	case DifficultyIntermediate:
		return "Moderate techniques, some prep required, 30-60 min, home cook level"
	case DifficultyHard:
		return "Advanced techniques, significant prep, 60+ min, experienced cook level"
	default:
		return "Simple techniques, minimal prep, 15-30 min total time, beginner-friendly"
	}
}

// Language is the locale used for recipe text and user-facing messages
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
)

// DefaultLanguage is used when a tag is missing or unknown
const DefaultLanguage = LanguageEnglish

// ParseLanguage accepts a supported tag
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", ErrInvalidLanguage
	}
	return l, nil
}

// Valid reports whether l is supported
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageTurkish
}

// OrDefault returns l if supported, otherwise the default language
func (l Language) OrDefault() Language {
	if l.Valid() {
		return l
	}
	return DefaultLanguage
}

// DisplayName returns the language name used inside prompts
func (l Language) DisplayName() string {
	if l == LanguageTurkish {
		return "Turkish"
	}
	return "English"
}

// Source tags the stage that produced a recipe
type Source string

const (
	SourceCache    Source = "cache"
	SourceSemantic Source = "semantic_search"
	SourceWeb      Source = "web_search"
	SourceGenerate Source = "generate"
	SourceFeedback Source = "feedback"
)

// PreValidated reports whether recipes from this source skip validation
func (s Source) PreValidated() bool {
	return s == SourceCache || s == SourceSemantic
}

// Cacheable reports whether a successful recipe from this source is persisted
func (s Source) Cacheable() bool {
	return s == SourceGenerate || s == SourceWeb
}
