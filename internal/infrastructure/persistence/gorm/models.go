// Package gorm provides GORM model definitions for the application
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// RecipeModel represents the GORM model for stored recipes.
// The lookup index makes (ingredient_key, difficulty, language) unique.
type RecipeModel struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	IngredientKey string    `gorm:"type:text;not null;uniqueIndex:idx_recipes_lookup,priority:1"`
	Difficulty    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_recipes_lookup,priority:2"`
	Language      string    `gorm:"type:varchar(5);not null;uniqueIndex:idx_recipes_lookup,priority:3"`

	Name        string      `gorm:"type:varchar(255);not null"`
	Ingredients StringSlice `gorm:"type:json"`
	Steps       StringSlice `gorm:"type:json"`
	Metadata    JSONField   `gorm:"type:json"`
	Source      string      `gorm:"type:varchar(20);index"`

	// Embedding is nil when the embedding service was unavailable at save time
	Embedding     *Vector `gorm:"type:vector"`
	EmbeddingDims int     `gorm:"default:0;index"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// ErrorLogModel represents an appended workflow or API failure
type ErrorLogModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Type      string    `gorm:"type:varchar(50);not null;index"`
	Message   string    `gorm:"type:text;not null"`
	RequestID string    `gorm:"type:varchar(64);index"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName overrides
func (RecipeModel) TableName() string {
	return "recipes"
}

func (ErrorLogModel) TableName() string {
	return "error_logs"
}

// Vector stores embeddings as pgvector values. Drivers without the
// extension hand back the text form as a string, which pgvector also parses.
type Vector struct {
	pgvector.Vector
}

// NewVector wraps a float32 slice
func NewVector(vec []float32) *Vector {
	if len(vec) == 0 {
		return nil
	}
	return &Vector{Vector: pgvector.NewVector(vec)}
}

// Scan implements sql.Scanner
func (v *Vector) Scan(src interface{}) error {
	if s, ok := src.(string); ok {
		src = []byte(s)
	}
	return v.Vector.Scan(src)
}

// Value implements driver.Valuer
func (v Vector) Value() (driver.Value, error) {
	return v.Vector.Value()
}

// StringSlice is a custom type for handling string slices in GORM
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONField is a custom type for handling JSON objects in GORM
type JSONField map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = JSONField{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONField", value)
	}
}

// Value implements the driver.Valuer interface
func (j JSONField) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
