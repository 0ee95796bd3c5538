package embedding

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"repoindex/internal/port"
)

// CachingEmbedder remembers recent embeddings by text. It is meant for the
// query path, where the same question is often asked repeatedly.
type CachingEmbedder struct {
	next  port.Embedder
	cache *expirable.LRU[string, []float32]
}

func NewCachingEmbedder(next port.Embedder, size int, ttl time.Duration) *CachingEmbedder {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachingEmbedder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return copyVector(vec), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, copyVector(vec))
	return vec, nil
}

func (c *CachingEmbedder) ModelName() string {
	return c.next.ModelName()
}

// Len returns the number of cached embeddings.
func (c *CachingEmbedder) Len() int {
	return c.cache.Len()
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
