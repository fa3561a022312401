// Package search selects the web search provider and cleans its snippets
package search

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/search/duckduckgo"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/search/tavily"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// Supported providers
const (
	ProviderTavily     = "tavily"
	ProviderDuckDuckGo = "duckduckgo"
)

// Config configures web search
type Config struct {
	Provider      string
	TavilyAPIKey  string
	TavilyBaseURL string
	MaxResults    int
	Depth         string
	Timeout       time.Duration
}

// Provider is a search provider that can report its health
type Provider interface {
	outbound.SearchProvider
	outbound.HealthChecker
}

// NewProvider returns the configured provider. Tavily without a key falls back to DuckDuckGo.
func NewProvider(cfg Config, logger *zap.Logger) (Provider, error) {
	name := cfg.Provider
	if name == "" || (name == ProviderTavily && cfg.TavilyAPIKey == "") {
		if name == ProviderTavily {
			logger.Warn("Tavily API key missing, falling back to DuckDuckGo")
		}
		name = ProviderDuckDuckGo
	}

	switch name {
	case ProviderTavily:
		return tavily.NewClient(tavily.Config{BaseURL: cfg.TavilyBaseURL, APIKey: cfg.TavilyAPIKey, Timeout: cfg.Timeout}, logger), nil
	case ProviderDuckDuckGo:
		return duckduckgo.NewClient(cfg.MaxResults, logger)
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// Sanitizer strips markup from search snippets before they reach a prompt
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer using bluemonday's strict policy
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize removes all tags and collapses whitespace
func (s *Sanitizer) Sanitize(text string) string {
	clean := html.UnescapeString(s.policy.Sanitize(text))
	return strings.Join(strings.Fields(clean), " ")
}
