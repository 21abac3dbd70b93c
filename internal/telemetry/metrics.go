// Package telemetry provides application-level observability for the console backend.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<CSL_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped every 15–60 seconds. It is NOT served by
// the Gin router, so it never competes with dashboard traffic.
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as
// /api/v1/layout/:organization/:project/:target) rather than the raw URL to
// prevent unbounded label cardinality from user-supplied path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Layout metrics — recorded by the dashboard layout endpoint.
//
// LayoutRequestsTotal is a CounterVec with label {phase} recording the terminal
// phase of every layout evaluation: "ready", "error", or "redirect".
//
// LayoutRedirectsTotal is a CounterVec with label {reason} distinguishing why a
// layout request was redirected: "org_not_found", "project_not_found",
// "target_not_found", or "no_read_access". A spike in target_not_found usually
// means stale links after a target was deleted or renamed.
//
// Example PromQL queries:
//   - Redirect share:   sum(rate(layout_redirects_total[5m])) / sum(rate(layout_requests_total[5m]))
//   - Redirect reasons: sum by (reason) (rate(layout_redirects_total[1h]))
var (
	LayoutRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layout_requests_total",
			Help: "Total number of dashboard layout evaluations, by terminal phase.",
		},
		[]string{"phase"},
	)

	LayoutRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layout_redirects_total",
			Help: "Total number of layout requests answered with a redirect, by reason.",
		},
		[]string{"reason"},
	)
)

// Query cache metrics — recorded by the query layer.
//
// QueryCacheHitsTotal / QueryCacheMissesTotal are CounterVecs with label {query}
// ("project" or "targets"). A low hit rate after warm-up usually points at the
// cache refresher job not covering the projects users actually visit.
var (
	QueryCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Total number of query layer cache hits, by query kind.",
		},
		[]string{"query"},
	)

	QueryCacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Total number of query layer cache misses, by query kind.",
		},
		[]string{"query"},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool. It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
