package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
)

// MockProvider generates deterministic pseudo-embeddings seeded from the
// input text. The same text always maps to the same unit-norm vector, and
// unrelated texts map to near-orthogonal ones, which is enough structure
// for similarity filtering and for tests.
type MockProvider struct {
	dim int
}

// NewMockProvider returns a provider emitting vectors of the given
// dimension, or DefaultDimension when dim is not positive.
func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &MockProvider{dim: dim}
}

func (p *MockProvider) Dimension() int { return p.dim }

func (p *MockProvider) EmbedText(_ context.Context, text string) ([]float64, error) {
	return p.embed(text), nil
}

func (p *MockProvider) EmbedSkills(_ context.Context, skills []string) ([][]float64, error) {
	out := make([][]float64, len(skills))
	for i, skill := range skills {
		out[i] = p.embed(skill)
	}
	return out, nil
}

func (p *MockProvider) embed(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(text))))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float64, p.dim)
	var norm float64
	for i := range vec {
		vec[i] = rng.Float64()*2 - 1
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
