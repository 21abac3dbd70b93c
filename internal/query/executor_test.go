package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeCache is an in-memory Cache for tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, false, errors.New("cache down")
	}
	val, ok := c.data[key]
	return val, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type snapshot struct {
	Value string `json:"value"`
}

func TestRun_MissFetchesAndCaches(t *testing.T) {
	cache := newFakeCache()
	ex := NewExecutor(cache, time.Minute)

	calls := 0
	result := Run(context.Background(), ex, "test", "k1", func(ctx context.Context) (snapshot, error) {
		calls++
		return snapshot{Value: "fresh"}, nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Fetching {
		t.Error("Fetching = true on a cache miss, want false")
	}
	if result.Data.Value != "fresh" {
		t.Errorf("Data.Value = %s, want fresh", result.Data.Value)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
	if _, ok := cache.data["k1"]; !ok {
		t.Error("snapshot was not cached after miss")
	}
}

func TestRun_HitServesCachedAndRevalidates(t *testing.T) {
	cache := newFakeCache()
	ex := NewExecutor(cache, time.Minute)
	cache.data["k1"] = []byte(`{"value":"cached"}`)

	refreshed := make(chan struct{})
	result := Run(context.Background(), ex, "test", "k1", func(ctx context.Context) (snapshot, error) {
		defer close(refreshed)
		return snapshot{Value: "refreshed"}, nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !result.Fetching {
		t.Error("Fetching = false on a cache hit, want true")
	}
	if result.Data.Value != "cached" {
		t.Errorf("Data.Value = %s, want cached snapshot", result.Data.Value)
	}

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("background revalidation never ran")
	}

	// The refresh result eventually replaces the snapshot.
	deadline := time.Now().Add(2 * time.Second)
	for {
		cache.mu.Lock()
		val := string(cache.data["k1"])
		cache.mu.Unlock()
		if val == `{"value":"refreshed"}` {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot not refreshed, still %s", val)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRun_FetchErrorOnMiss(t *testing.T) {
	cache := newFakeCache()
	ex := NewExecutor(cache, time.Minute)

	wantErr := errors.New("db down")
	result := Run(context.Background(), ex, "test", "k1", func(ctx context.Context) (snapshot, error) {
		return snapshot{}, wantErr
	})

	if !errors.Is(result.Err, wantErr) {
		t.Errorf("Err = %v, want %v", result.Err, wantErr)
	}
	if result.Fetching {
		t.Error("Fetching = true on error, want false")
	}
}

func TestRun_BrokenCacheFallsThrough(t *testing.T) {
	cache := newFakeCache()
	cache.fail = true
	ex := NewExecutor(cache, time.Minute)

	result := Run(context.Background(), ex, "test", "k1", func(ctx context.Context) (snapshot, error) {
		return snapshot{Value: "fresh"}, nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Data.Value != "fresh" {
		t.Errorf("Data.Value = %s, want fresh", result.Data.Value)
	}
}

func TestRun_CorruptSnapshotRefetches(t *testing.T) {
	cache := newFakeCache()
	ex := NewExecutor(cache, time.Minute)
	cache.data["k1"] = []byte(`{not json`)

	result := Run(context.Background(), ex, "test", "k1", func(ctx context.Context) (snapshot, error) {
		return snapshot{Value: "fresh"}, nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Fetching {
		t.Error("Fetching = true after corrupt snapshot, want synchronous refetch")
	}
	if result.Data.Value != "fresh" {
		t.Errorf("Data.Value = %s, want fresh", result.Data.Value)
	}
}

func TestInvalidate(t *testing.T) {
	cache := newFakeCache()
	ex := NewExecutor(cache, time.Minute)
	cache.data["k1"] = []byte(`{"value":"cached"}`)

	if err := ex.Invalidate(context.Background(), "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cache.data["k1"]; ok {
		t.Error("snapshot still present after Invalidate")
	}
}
