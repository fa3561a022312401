// Package tavily provides a client for the Tavily search API
package tavily

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// Config configures the client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements outbound.SearchProvider using Tavily
type Client struct {
	http   *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewClient creates a new Tavily client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
			SetHeader("Content-Type", "application/json"),
		apiKey: cfg.APIKey,
		logger: logger.Named("tavily-client"),
	}
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search runs a query and returns ranked snippets
func (c *Client) Search(ctx context.Context, query outbound.SearchQuery) ([]outbound.SearchResult, error) {
	var out searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(searchRequest{
			APIKey:      c.apiKey,
			Query:       query.Query,
			MaxResults:  query.MaxResults,
			SearchDepth: query.Depth,
		}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("tavily search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tavily API error %d: %s", resp.StatusCode(), resp.String())
	}

	results := make([]outbound.SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, outbound.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}

	c.logger.Debug("Tavily search completed", zap.Int("results", len(results)))
	return results, nil
}

// HealthCheck reports whether an API key is configured
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("tavily API key not configured")
	}
	return nil
}
