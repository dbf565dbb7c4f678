package memory

import (
	"context"
	"sync"
)

// ModelCache owns the lazily constructed, process-wide Embedder instance.
// Model construction can block for seconds, so it runs at most once; the
// mutex makes concurrent first callers wait for a single load instead of
// racing. A failed load is not cached and the next caller retries.
type ModelCache struct {
	mu       sync.Mutex
	factory  func(ctx context.Context) (Embedder, error)
	embedder Embedder
}

// NewModelCache creates a cache around the given embedder factory.
func NewModelCache(factory func(ctx context.Context) (Embedder, error)) *ModelCache {
	return &ModelCache{factory: factory}
}

// Embedder returns the shared instance, constructing it on first use.
func (c *ModelCache) Embedder(ctx context.Context) (Embedder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.embedder != nil {
		return c.embedder, nil
	}
	embedder, err := c.factory(ctx)
	if err != nil {
		return nil, err
	}
	c.embedder = embedder
	return embedder, nil
}
