// Package handlers provides HTTP handlers for the recipe API
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/security"
	"github.com/alchemorsel/pantrychef/internal/ports/inbound"
)

// GenerateRequest is the body of POST /api/v1/recipes/generate
type GenerateRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=3,max=20,dive,min=1,max=50,ingredient"`
	Difficulty  string   `json:"difficulty" binding:"required,oneof=easy intermediate hard"`
	Lang        string   `json:"lang" binding:"omitempty,oneof=en tr"`
}

// ModifyRequest is the body of POST /api/v1/recipes/modify
type ModifyRequest struct {
	OriginalIngredients []string `json:"original_ingredients" binding:"required,min=3,max=20,dive,min=1,max=50,ingredient"`
	NewIngredients      []string `json:"new_ingredients" binding:"max=20,dive,min=1,max=50,ingredient"`
	Difficulty          string   `json:"difficulty" binding:"required,oneof=easy intermediate hard"`
	Lang                string   `json:"lang" binding:"omitempty,oneof=en tr"`
}

// FeedbackRequest is the body of POST /api/v1/recipes/feedback
type FeedbackRequest struct {
	Recipe      *recipe.Recipe `json:"recipe" binding:"required"`
	Ingredients []string       `json:"ingredients" binding:"required,min=1,max=20,dive,min=1,max=50,ingredient"`
	Difficulty  string         `json:"difficulty" binding:"required,oneof=easy intermediate hard"`
	Lang        string         `json:"lang" binding:"omitempty,oneof=en tr"`
	Approved    *bool          `json:"approved" binding:"required"`
}

// SuccessResponse is returned when a recipe was produced
type SuccessResponse struct {
	Status      string         `json:"status"`
	Recipe      *recipe.Recipe `json:"recipe"`
	Source      recipe.Source  `json:"source"`
	ExtrasAdded []string       `json:"extra_ingredients_added"`
	Iterations  int            `json:"iterations"`
}

// WorkflowErrorResponse is returned with HTTP 200 when the workflow gave up
type WorkflowErrorResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	ExtrasTried []string `json:"extra_ingredients_tried"`
}

// RecipeHandlers handles recipe API requests
type RecipeHandlers struct {
	service    inbound.RecipeService
	validation *security.ValidationService
	logger     *zap.Logger
}

// NewRecipeHandlers creates a new recipe handlers instance
func NewRecipeHandlers(service inbound.RecipeService, validation *security.ValidationService, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		service:    service,
		validation: validation,
		logger:     logger.Named("recipe-handlers"),
	}
}

// Generate handles POST /api/v1/recipes/generate
func (h *RecipeHandlers) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(h.validation.BindError(err))
		return
	}

	res, err := h.service.Generate(c.Request.Context(), inbound.GenerateCommand{
		Ingredients: req.Ingredients,
		Difficulty:  recipe.Difficulty(req.Difficulty),
		Language:    recipe.Language(req.Lang),
		RequestID:   c.GetString(middleware.RequestIDKey),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, GenerationBody(res))
}

// Modify handles POST /api/v1/recipes/modify
func (h *RecipeHandlers) Modify(c *gin.Context) {
	var req ModifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(h.validation.BindError(err))
		return
	}

	res, err := h.service.Modify(c.Request.Context(), inbound.ModifyCommand{
		OriginalIngredients: req.OriginalIngredients,
		NewIngredients:      req.NewIngredients,
		Difficulty:          recipe.Difficulty(req.Difficulty),
		Language:            recipe.Language(req.Lang),
		RequestID:           c.GetString(middleware.RequestIDKey),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, GenerationBody(res))
}

// Feedback handles POST /api/v1/recipes/feedback
func (h *RecipeHandlers) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(h.validation.BindError(err))
		return
	}

	res, err := h.service.Feedback(c.Request.Context(), inbound.FeedbackCommand{
		Recipe:      req.Recipe,
		Ingredients: req.Ingredients,
		Difficulty:  recipe.Difficulty(req.Difficulty),
		Language:    recipe.Language(req.Lang),
		Approved:    *req.Approved,
		RequestID:   c.GetString(middleware.RequestIDKey),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GenerationBody shapes a generation result for the wire
func GenerationBody(res *inbound.GenerationResult) interface{} {
	if res.Status == inbound.StatusError {
		return WorkflowErrorResponse{
			Status:      inbound.StatusError,
			Message:     res.Message,
			ExtrasTried: nonNil(res.ExtrasAdded),
		}
	}
	return SuccessResponse{
		Status:      res.Status,
		Recipe:      res.Recipe,
		Source:      res.Source,
		ExtrasAdded: nonNil(res.ExtrasAdded),
		Iterations:  res.Iterations,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
