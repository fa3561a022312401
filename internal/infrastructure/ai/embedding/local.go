// Package embedding provides a deterministic local text embedder.
//
// Each ingredient token and its character trigrams are hashed into a fixed
// number of buckets and the vector is L2-normalized, so L2 distance between two
// embeddings grows with the number of ingredients the texts do not share.
package embedding

import (
	"context"
	"encoding/binary"
	"math"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
)

// DefaultDimensions is the vector size used when none is configured
const DefaultDimensions = 256

// trigramWeight scales sub-word features relative to whole tokens
const trigramWeight = 0.25

// Local is a feature-hashing embedder that needs no network access
type Local struct {
	dims int
}

// NewLocal creates a local embedder producing vectors of dims entries
func NewLocal(dims int) *Local {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Local{dims: dims}
}

// Dimensions returns the vector size
func (l *Local) Dimensions() int {
	return l.dims
}

// Embed returns the normalized embedding of text
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, l.dims)

	for _, token := range tokens(text) {
		l.add(vec, "t:"+token, 1)
		runes := []rune(" " + token + " ")
		for i := 0; i+3 <= len(runes); i++ {
			l.add(vec, "g:"+string(runes[i:i+3]), trigramWeight)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, l.dims)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (l *Local) add(vec []float64, feature string, weight float64) {
	sum := blake2b.Sum256([]byte(feature))
	bucket := binary.BigEndian.Uint32(sum[:4]) % uint32(l.dims)
	sign := 1.0
	if sum[4]&1 == 1 {
		sign = -1.0
	}
	vec[bucket] += sign * weight
}

// tokens splits the ingredient part of an embedding text into lower-case items
func tokens(text string) []string {
	if i := strings.Index(text, ":"); i >= 0 {
		text = text[i+1:]
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return fields
}
