package embeddings

import (
	"context"
	"time"

	"github.com/mileshq/miles-brain/internal/cache"
)

// CacheMetrics receives hit/miss counts from the cached provider.
type CacheMetrics interface {
	IncrementEmbeddingCacheHit()
	IncrementEmbeddingCacheMiss()
}

// CachedProvider wraps a Provider with a TTL vector cache keyed on the
// normalized input text.
type CachedProvider struct {
	inner   Provider
	cache   *cache.VectorCache
	metrics CacheMetrics
}

// NewCachedProvider wraps inner with a cache holding vectors for ttl.
// metrics may be nil.
func NewCachedProvider(inner Provider, ttl time.Duration, metrics CacheMetrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.NewVectorCache(ttl),
		metrics: metrics,
	}
}

func (p *CachedProvider) Dimension() int { return p.inner.Dimension() }

func (p *CachedProvider) EmbedText(ctx context.Context, text string) ([]float64, error) {
	key := cache.Key(text)
	if vec, ok := p.cache.Get(key); ok {
		p.hit()
		return vec, nil
	}
	p.miss()

	vec, err := p.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, vec)
	return vec, nil
}

// EmbedSkills resolves cached skills locally and asks the inner provider
// only for the misses, preserving input order in the result.
func (p *CachedProvider) EmbedSkills(ctx context.Context, skills []string) ([][]float64, error) {
	out := make([][]float64, len(skills))
	var missing []string
	var missingIdx []int

	for i, skill := range skills {
		if vec, ok := p.cache.Get(cache.Key(skill)); ok {
			p.hit()
			out[i] = vec
			continue
		}
		p.miss()
		missing = append(missing, skill)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vecs, err := p.inner.EmbedSkills(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range vecs {
			p.cache.Set(cache.Key(missing[j]), vec)
			out[missingIdx[j]] = vec
		}
	}
	return out, nil
}

func (p *CachedProvider) hit() {
	if p.metrics != nil {
		p.metrics.IncrementEmbeddingCacheHit()
	}
}

func (p *CachedProvider) miss() {
	if p.metrics != nil {
		p.metrics.IncrementEmbeddingCacheMiss()
	}
}
