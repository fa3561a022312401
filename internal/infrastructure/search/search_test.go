package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/search/duckduckgo"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/search/tavily"
)

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	assert.Equal(t, "Quick pasta & tomato dinner", s.Sanitize("<p>Quick <b>pasta</b> &amp; tomato\n dinner</p><script>alert(1)</script>"))
	assert.Equal(t, "", s.Sanitize("<img src=x onerror=alert(1)>"))
}

func TestNewProvider(t *testing.T) {
	logger := zaptest.NewLogger(t)

	p, err := NewProvider(Config{Provider: ProviderTavily, TavilyAPIKey: "key"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &tavily.Client{}, p)

	p, err = NewProvider(Config{Provider: ProviderTavily}, logger)
	require.NoError(t, err)
	assert.IsType(t, &duckduckgo.Client{}, p)

	_, err = NewProvider(Config{Provider: "bing"}, logger)
	assert.Error(t, err)
}
