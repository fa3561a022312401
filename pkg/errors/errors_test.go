package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewBadRequestError("bad"), http.StatusBadRequest},
		{NewValidationError("ingredients is required"), http.StatusBadRequest},
		{NewNotFoundError("recipe"), http.StatusNotFound},
		{NewMinIngredientsError("Add more"), http.StatusUnprocessableEntity},
		{NewTooManyRequestsError("5/min"), http.StatusTooManyRequests},
		{NewDatabaseError("", "save recipe", nil), http.StatusInternalServerError},
		{NewInternalError(""), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestWrapAndIs(t *testing.T) {
	cause := stderrors.New("connection reset")

	wrapped := Wrap(cause, "storage failed")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)

	appErr := NewMinIngredientsError("Add more")
	assert.Same(t, appErr, Wrap(fmt.Errorf("outer: %w", appErr), "ignored"))
	assert.True(t, Is(fmt.Errorf("outer: %w", appErr), CodeMinIngredients))
	assert.False(t, Is(cause, CodeMinIngredients))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestDatabaseErrorMessage(t *testing.T) {
	cause := stderrors.New("disk full")

	err := NewDatabaseError("Kaydedilemedi.", "save recipe", cause)
	assert.Equal(t, "Kaydedilemedi.", err.Message)
	assert.Equal(t, "Failed to save recipe", err.Details)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "Database operation failed", NewDatabaseError("", "save recipe", nil).Message)
}

func TestErrorStringAndResponse(t *testing.T) {
	err := NewTooManyRequestsError("5/min")
	assert.Equal(t, "TOO_MANY_REQUESTS: Too many requests (Rate limit of 5/min exceeded)", err.Error())
	assert.NotEmpty(t, err.StackTrace)

	resp := ToErrorResponse(err, "req-1")
	assert.Equal(t, CodeTooManyRequests, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Equal(t, "5/min", resp.Error.Metadata["limit"])
}

func TestValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "ingredients", Tag: "required", Message: "ingredients is required"},
		{Field: "difficulty", Tag: "oneof", Message: "difficulty must be one of easy intermediate hard"},
	})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, "ingredients is required; difficulty must be one of easy intermediate hard", err.Details)
	assert.Len(t, err.Metadata["validation_errors"], 2)
	assert.Equal(t, "validation failed", ValidationErrors(nil).Error())
}
