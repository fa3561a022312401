package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func TestLocalEmbedder(t *testing.T) {
	e := NewLocal(0)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Ingredients: pasta, tomato")
	require.NoError(t, err)
	require.Len(t, a, DefaultDimensions)

	again, _ := e.Embed(ctx, "Ingredients: pasta, tomato")
	assert.Equal(t, a, again, "embedding is deterministic")

	var norm float64
	for _, v := range a {
		norm += float64(v * v)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)

	near, _ := e.Embed(ctx, "Ingredients: pasta, tomato, garlic")
	far, _ := e.Embed(ctx, "Ingredients: chocolate, strawberry, cream")
	assert.Less(t, l2(a, near), l2(a, far))
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	vec, err := NewLocal(8).Embed(context.Background(), "Ingredients: ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}
