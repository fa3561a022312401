// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/pkg/errors"
)

// RecipeAssertions provides recipe-specific assertion methods
type RecipeAssertions struct {
	t *testing.T
}

// NewRecipeAssertions creates a new recipe assertions helper
func NewRecipeAssertions(t *testing.T) *RecipeAssertions {
	return &RecipeAssertions{t: t}
}

// Complete asserts the recipe has a name, ingredients and steps
func (ra *RecipeAssertions) Complete(r *recipe.Recipe, msgAndArgs ...interface{}) {
	ra.t.Helper()
	require.NotNil(ra.t, r, msgAndArgs...)
	assert.NoError(ra.t, r.CheckComplete(), msgAndArgs...)
}

// UsesIngredients asserts every requested ingredient appears in the recipe's ingredient lines
func (ra *RecipeAssertions) UsesIngredients(r *recipe.Recipe, requested []string) {
	ra.t.Helper()
	require.NotNil(ra.t, r)
	lines := strings.ToLower(strings.Join(r.Ingredients, "\n"))
	for _, ingredient := range requested {
		assert.Contains(ra.t, lines, strings.ToLower(ingredient), "recipe %q is missing %q", r.Name, ingredient)
	}
}

// HasSource asserts the recipe metadata carries the given source
func (ra *RecipeAssertions) HasSource(r *recipe.Recipe, source recipe.Source) {
	ra.t.Helper()
	require.NotNil(ra.t, r)
	require.NotNil(ra.t, r.Metadata, "recipe metadata is empty")
	assert.EqualValues(ra.t, source, r.Metadata[recipe.MetaSource])
}

// HTTPAssertions provides assertions on recorded API responses
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// JSONBody asserts the status code and decodes the body into out
func (ha *HTTPAssertions) JSONBody(w *httptest.ResponseRecorder, status int, out interface{}) {
	ha.t.Helper()
	require.Equal(ha.t, status, w.Code, w.Body.String())
	assert.Contains(ha.t, w.Header().Get("Content-Type"), "application/json")
	require.NoError(ha.t, json.Unmarshal(w.Body.Bytes(), out))
}

// ErrorEnvelope asserts the response is an error envelope with the given code
func (ha *HTTPAssertions) ErrorEnvelope(w *httptest.ResponseRecorder, status int, code errors.ErrorCode) errors.ErrorResponse {
	ha.t.Helper()
	var resp errors.ErrorResponse
	ha.JSONBody(w, status, &resp)
	assert.Equal(ha.t, code, resp.Error.Code)
	assert.NotEmpty(ha.t, resp.Error.Message)
	return resp
}

// SecurityHeaders asserts the standard hardening headers are set
func (ha *HTTPAssertions) SecurityHeaders(h http.Header) {
	ha.t.Helper()
	assert.Equal(ha.t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.NotEmpty(ha.t, h.Get("X-Frame-Options"))
}
