package ai

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-crypt/x/blake2b"
)

// CachingEmbedder consults a VectorCache before calling the wrapped Embedder.
// Cache failures are logged and never fail an embedding call.
type CachingEmbedder struct {
	inner     Embedder
	cache     VectorCache
	namespace string
	hits      atomic.Int64
	misses    atomic.Int64
	logger    *slog.Logger
}

// NewCachingEmbedder wraps inner with cache. The namespace separates vectors
// produced by different models or dimensions; use the model identifier.
func NewCachingEmbedder(inner Embedder, cache VectorCache, namespace string) *CachingEmbedder {
	return &CachingEmbedder{
		inner:     inner,
		cache:     cache,
		namespace: namespace,
		logger:    slog.Default().With("component", "embedding-cache"),
	}
}

// CacheKey derives the 16-byte cache key for text within namespace.
func CacheKey(namespace, text string) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

// EmbedText returns the cached vector for text or embeds and caches it.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.namespace, text)

	vector, ok, err := c.cache.GetVector(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "err", err)
	} else if ok {
		c.hits.Add(1)
		return vector, nil
	}
	c.misses.Add(1)

	vector, err = c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutVector(ctx, key, vector); err != nil {
		c.logger.Warn("cache write failed", "err", err)
	}
	return vector, nil
}

// EmbedTexts embeds only the texts missing from the cache, in one batch.
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	var missing []int

	for i, text := range texts {
		keys[i] = CacheKey(c.namespace, text)
		vector, ok, err := c.cache.GetVector(ctx, keys[i])
		if err != nil {
			c.logger.Warn("cache read failed", "err", err)
		}
		if ok && err == nil {
			c.hits.Add(1)
			vectors[i] = vector
			continue
		}
		c.misses.Add(1)
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}

	embedded, err := c.inner.EmbedTexts(ctx, batch)
	if err != nil {
		return nil, err
	}

	for j, i := range missing {
		if j >= len(embedded) {
			break
		}
		vectors[i] = embedded[j]
		if err := c.cache.PutVector(ctx, keys[i], embedded[j]); err != nil {
			c.logger.Warn("cache write failed", "err", err)
		}
	}
	return vectors, nil
}

// Stats returns the number of cache hits and misses so far.
func (c *CachingEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
