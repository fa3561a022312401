package outbound

import "context"

// LLMService completes a single prompt
type LLMService interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is a chat style request to an LLM
type Prompt struct {
	System      string
	User        string
	Temperature float64
	// Purpose labels the call for metrics and logs, e.g. "generate" or "review"
	Purpose string
}

// EmbeddingService turns text into a vector
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchProvider queries the web for text snippets
type SearchProvider interface {
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)
}

// SearchQuery configures a web search
type SearchQuery struct {
	Query      string
	MaxResults int
	Depth      string
}

// SearchResult is a single ranked snippet
type SearchResult struct {
	Title   string
	URL     string
	Content string
}

// HealthChecker is implemented by adapters that can probe their backend
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
