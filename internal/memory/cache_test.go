package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestModelCacheLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	cache := NewModelCache(func(context.Context) (Embedder, error) {
		loads.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return &stubEmbedder{}, nil
	})

	const callers = 8
	instances := make([]Embedder, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			embedder, err := cache.Embedder(context.Background())
			if err != nil {
				t.Errorf("Embedder returned error: %v", err)
				return
			}
			instances[i] = embedder
		}(i)
	}
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("expected exactly one model load, got %d", got)
	}
	for i := 1; i < callers; i++ {
		if instances[i] != instances[0] {
			t.Fatal("callers received different embedder instances")
		}
	}
}

func TestModelCacheRetriesAfterFailure(t *testing.T) {
	calls := 0
	cache := NewModelCache(func(context.Context) (Embedder, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("load failed")
		}
		return &stubEmbedder{}, nil
	})

	if _, err := cache.Embedder(context.Background()); err == nil {
		t.Fatal("expected the first load to fail")
	}
	embedder, err := cache.Embedder(context.Background())
	if err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if embedder == nil {
		t.Fatal("expected an embedder instance")
	}
	if calls != 2 {
		t.Fatalf("expected 2 factory calls, got %d", calls)
	}
}
