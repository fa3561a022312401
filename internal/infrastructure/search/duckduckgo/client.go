// Package duckduckgo adapts the langchaingo DuckDuckGo tool to the search port
package duckduckgo

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// noResults is what the tool answers when the search finds nothing
const noResults = "No good DuckDuckGo Search Results was found"

type caller interface {
	Call(ctx context.Context, input string) (string, error)
}

// Client implements outbound.SearchProvider without an API key
type Client struct {
	tool   caller
	logger *zap.Logger
}

// NewClient creates a DuckDuckGo search client returning at most maxResults results
func NewClient(maxResults int, logger *zap.Logger) (*Client, error) {
	if maxResults <= 0 {
		maxResults = 3
	}
	tool, err := duckduckgo.New(maxResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, fmt.Errorf("creating duckduckgo tool: %w", err)
	}
	return &Client{tool: tool, logger: logger.Named("duckduckgo-client")}, nil
}

// Search runs a query and parses the tool's text output into results
func (c *Client) Search(ctx context.Context, query outbound.SearchQuery) ([]outbound.SearchResult, error) {
	out, err := c.tool.Call(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search failed: %w", err)
	}

	results := parseResults(out)
	if query.MaxResults > 0 && len(results) > query.MaxResults {
		results = results[:query.MaxResults]
	}

	c.logger.Debug("DuckDuckGo search completed", zap.Int("results", len(results)))
	return results, nil
}

// HealthCheck is a no-op; the endpoint needs no credentials
func (c *Client) HealthCheck(ctx context.Context) error {
	return nil
}

// parseResults reads blocks of "Title:", "Description:" and "URL:" lines
func parseResults(out string) []outbound.SearchResult {
	out = strings.TrimSpace(out)
	if out == "" || strings.HasPrefix(out, noResults) {
		return nil
	}

	var results []outbound.SearchResult
	for _, block := range strings.Split(out, "\n\n") {
		var r outbound.SearchResult
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "Title:"):
				r.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
			case strings.HasPrefix(line, "Description:"):
				r.Content = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
			case strings.HasPrefix(line, "URL:"):
				r.URL = strings.TrimSpace(strings.TrimPrefix(line, "URL:"))
			}
		}
		if r.Title != "" || r.Content != "" {
			results = append(results, r)
		}
	}
	return results
}
