package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/schema-registry/console-backend/internal/safego"
	"github.com/schema-registry/console-backend/internal/telemetry"
)

// Result is the outcome of one query execution. Exactly one of Data and Err is
// meaningful: when Err is nil, Data holds the snapshot. Fetching reports that
// the snapshot came from cache and a background refresh is in flight, so the
// caller may be looking at slightly stale data.
type Result[T any] struct {
	Data     T
	Fetching bool
	Err      error
}

// Executor runs queries through the snapshot cache.
type Executor struct {
	cache          Cache
	ttl            time.Duration
	refreshTimeout time.Duration
}

// NewExecutor creates a query executor. ttl bounds how long a snapshot is
// served without a successful refresh.
func NewExecutor(cache Cache, ttl time.Duration) *Executor {
	return &Executor{
		cache:          cache,
		ttl:            ttl,
		refreshTimeout: 10 * time.Second,
	}
}

// Run executes a query with cache-and-network semantics. On a cache hit the
// cached snapshot is returned immediately and fetch runs in the background to
// refresh it. On a miss fetch runs synchronously and its result is cached.
//
// name labels the query in metrics; key must uniquely identify the query
// inputs.
func Run[T any](ctx context.Context, ex *Executor, name, key string, fetch func(context.Context) (T, error)) Result[T] {
	cached, ok, err := ex.cache.Get(ctx, key)
	if err != nil {
		// A broken cache must not take down reads. Fall through to the database.
		slog.Warn("query cache read failed", "query", name, "error", err)
		ok = false
	}

	if ok {
		var data T
		if err := json.Unmarshal(cached, &data); err == nil {
			telemetry.QueryCacheHitsTotal.WithLabelValues(name).Inc()
			revalidate(ctx, ex, name, key, fetch)
			return Result[T]{Data: data, Fetching: true}
		}
		// Unreadable snapshot. Drop it and refetch.
		_ = ex.cache.Delete(ctx, key)
	}

	telemetry.QueryCacheMissesTotal.WithLabelValues(name).Inc()

	data, err := fetch(ctx)
	if err != nil {
		var zero T
		return Result[T]{Data: zero, Err: err}
	}

	ex.store(ctx, name, key, data)
	return Result[T]{Data: data}
}

// Warm fetches fresh data and stores it as the snapshot for key, bypassing any
// cached value. Used by the background refresher to keep hot snapshots current
// between requests.
func Warm[T any](ctx context.Context, ex *Executor, name, key string, fetch func(context.Context) (T, error)) error {
	data, err := fetch(ctx)
	if err != nil {
		return err
	}
	ex.store(ctx, name, key, data)
	return nil
}

// Invalidate drops the snapshot for a key so the next read hits the database.
func (ex *Executor) Invalidate(ctx context.Context, key string) error {
	return ex.cache.Delete(ctx, key)
}

func (ex *Executor) store(ctx context.Context, name, key string, data any) {
	encoded, err := json.Marshal(data)
	if err != nil {
		slog.Warn("query snapshot encode failed", "query", name, "error", err)
		return
	}
	if err := ex.cache.Set(ctx, key, encoded, ex.ttl); err != nil {
		slog.Warn("query cache write failed", "query", name, "error", err)
	}
}

// revalidate refreshes a cached snapshot in the background. The refresh is
// detached from the request context so a fast client disconnect does not
// abort it.
func revalidate[T any](ctx context.Context, ex *Executor, name, key string, fetch func(context.Context) (T, error)) {
	bg := context.WithoutCancel(ctx)
	safego.Go(func() {
		refreshCtx, cancel := context.WithTimeout(bg, ex.refreshTimeout)
		defer cancel()

		data, err := fetch(refreshCtx)
		if err != nil {
			slog.Warn("query revalidation failed", "query", name, "error", err)
			return
		}
		ex.store(refreshCtx, name, key, data)
	})
}
