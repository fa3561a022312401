package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)

		var req searchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "secret", req.APIKey)
		assert.Equal(t, 3, req.MaxResults)
		assert.Equal(t, "advanced", req.SearchDepth)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"Tomato Pasta","url":"https://example.com/p","content":"Boil pasta","score":0.9}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, zaptest.NewLogger(t))
	results, err := client.Search(context.Background(), outbound.SearchQuery{Query: "easy recipe using only pasta", MaxResults: 3, Depth: "advanced"})

	require.NoError(t, err)
	assert.Equal(t, []outbound.SearchResult{{Title: "Tomato Pasta", URL: "https://example.com/p", Content: "Boil pasta"}}, results)
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, zaptest.NewLogger(t))
	_, err := client.Search(context.Background(), outbound.SearchQuery{Query: "x", MaxResults: 1})

	assert.ErrorContains(t, err, "401")
	assert.Error(t, client.HealthCheck(context.Background()))
}
