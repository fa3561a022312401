// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	gormModels "github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if dbPath == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&gormModels.RecipeModel{}, &gormModels.ErrorLogModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// starterRecipes are stored by SeedDatabase so a fresh install has cache hits
var starterRecipes = []struct {
	recipe     recipe.Recipe
	request    []string
	difficulty recipe.Difficulty
	language   recipe.Language
}{
	{
		recipe: recipe.Recipe{
			Name:        "Tomato Egg Scramble",
			Ingredients: []string{"3 eggs", "2 tomatoes", "1 tbsp oil", "salt"},
			Steps: []string{
				"Dice the tomatoes.",
				"Beat the eggs with a pinch of salt.",
				"Cook the tomatoes in oil for 3 minutes, add the eggs and stir until set.",
			},
		},
		request:    []string{"eggs", "tomato"},
		difficulty: recipe.DifficultyEasy,
		language:   recipe.LanguageEnglish,
	},
	{
		recipe: recipe.Recipe{
			Name:        "Domatesli Makarna",
			Ingredients: []string{"200g makarna", "2 domates", "1 yemek kaşığı zeytinyağı", "tuz"},
			Steps: []string{
				"Makarnayı tuzlu suda haşlayın.",
				"Domatesleri zeytinyağında 5 dakika pişirin.",
				"Makarnayı sosla karıştırıp servis edin.",
			},
		},
		request:    []string{"makarna", "domates"},
		difficulty: recipe.DifficultyEasy,
		language:   recipe.LanguageTurkish,
	},
}

// SeedDatabase populates an empty database with starter recipes
func SeedDatabase(ctx context.Context, db *gorm.DB, embedder outbound.EmbeddingService) error {
	repo := gormModels.NewRecipeRepository(db)

	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count recipes: %w", err)
	}
	if count > 0 {
		return nil // Already seeded
	}

	for _, s := range starterRecipes {
		r := s.recipe.Tag(recipe.SourceGenerate, s.difficulty)
		vector, err := embedder.Embed(ctx, recipe.EmbeddingText(s.request))
		if err != nil {
			return fmt.Errorf("failed to embed starter recipe: %w", err)
		}
		if err := repo.Save(ctx, outbound.StoredRecipe{
			Recipe:    r,
			Key:       recipe.NewExactKey(s.request, s.difficulty, s.language),
			Embedding: vector,
		}); err != nil {
			return fmt.Errorf("failed to create starter recipe: %w", err)
		}
	}

	return nil
}
