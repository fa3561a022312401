package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// maxQueryLength is the longest query the search API accepts
const maxQueryLength = 400

// Sanitizer strips markup from untrusted text
type Sanitizer interface {
	Sanitize(s string) string
}

// SearchConfig configures web extraction
type SearchConfig struct {
	MaxResults int
	Depth      string
}

// Searcher finds a recipe on the web and extracts it with the LLM
type Searcher struct {
	provider  outbound.SearchProvider
	llm       outbound.LLMService
	sanitizer Sanitizer
	cfg       SearchConfig
	logger    *zap.Logger
}

// NewSearcher creates a web search stage
func NewSearcher(provider outbound.SearchProvider, llm outbound.LLMService, sanitizer Sanitizer, cfg SearchConfig, logger *zap.Logger) *Searcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.Depth == "" {
		cfg.Depth = "advanced"
	}
	return &Searcher{
		provider:  provider,
		llm:       llm,
		sanitizer: sanitizer,
		cfg:       cfg,
		logger:    logger.Named("searcher"),
	}
}

// SearchWeb returns nil on any failure so the workflow can fall through to generation
func (s *Searcher) SearchWeb(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error) {
	query := buildQuery(ingredients, difficulty)

	results, err := s.provider.Search(ctx, outbound.SearchQuery{
		Query:      query,
		MaxResults: s.cfg.MaxResults,
		Depth:      s.cfg.Depth,
	})
	if err != nil {
		s.logger.Warn("web search failed", zap.String("query", query), zap.Error(err))
		return nil, nil
	}

	snippets := s.snippets(results)
	if snippets == "" {
		s.logger.Debug("search returned no usable content", zap.Int("results", len(results)))
		return nil, nil
	}

	summary, err := s.llm.Complete(ctx, outbound.Prompt{
		System:      extractorSystem,
		User:        buildSummarizePrompt(snippets),
		Temperature: SearchTemperature,
		Purpose:     PurposeSummarize,
	})
	if err != nil {
		s.logger.Warn("summarizing search results failed", zap.Error(err))
		return nil, nil
	}

	content, err := s.llm.Complete(ctx, outbound.Prompt{
		System:      extractorSystem,
		User:        buildParsePrompt(summary, ingredients, difficulty, language.OrDefault()),
		Temperature: SearchTemperature,
		Purpose:     PurposeParse,
	})
	if err != nil {
		s.logger.Warn("parsing search results failed", zap.Error(err))
		return nil, nil
	}
	content = strings.TrimSpace(content)
	if content == "" || strings.Contains(content, noRecipeSentinel) {
		s.logger.Debug("no recipe in search results")
		return nil, nil
	}

	found, err := decodeRecipe(content)
	if err != nil {
		s.logger.Warn("search extraction returned malformed JSON", zap.Error(err), zap.String("raw", preview(content)))
		return nil, nil
	}
	if !found.Complete() {
		s.logger.Debug("extracted recipe is incomplete", zap.String("name", found.Name))
		return nil, nil
	}

	s.logger.Info("recipe found on the web", zap.String("name", found.Name))
	return found, nil
}

func (s *Searcher) snippets(results []outbound.SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		title, content := r.Title, r.Content
		if s.sanitizer != nil {
			title, content = s.sanitizer.Sanitize(title), s.sanitizer.Sanitize(content)
		}
		title, content = strings.TrimSpace(title), strings.TrimSpace(content)
		if title == "" && content == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", title, content))
	}
	return strings.TrimSpace(b.String())
}

func buildQuery(ingredients []string, difficulty recipe.Difficulty) string {
	query := fmt.Sprintf("%s recipe using only %s", difficulty, strings.Join(ingredients, ", "))
	if utf8.RuneCountInString(query) > maxQueryLength {
		query = string([]rune(query)[:maxQueryLength])
	}
	return query
}
