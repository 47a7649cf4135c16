// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the data-access layer:
// - SQL call latency and failures
// - Connection pool occupancy
// - Result cache efficiency
// - Statement policy rejections
// - Warehouse connect circuit breaker
// - HTTP request latency

var (
	// SQL Client Metrics
	SQLQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sql_query_duration_seconds",
			Help:    "Duration of SQL client calls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "cached"}, // operation: "query", "execute"
	)

	SQLQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_query_errors_total",
			Help: "Total number of failed SQL client calls",
		},
		[]string{"operation", "error_kind"},
	)

	SQLSlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_slow_queries_total",
			Help: "Total number of SQL client calls at or above the slow query threshold",
		},
		[]string{"operation"},
	)

	SQLRowsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sql_rows_returned",
			Help:    "Rows returned per read call",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9), // 1 .. 65536
		},
	)

	SQLPolicyRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_policy_rejections_total",
			Help: "Total number of statements rejected by the environment policy",
		},
		[]string{"verb"},
	)

	// Connection Pool Metrics
	SQLPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sql_pool_connections",
			Help: "Physical warehouse connections by state",
		},
		[]string{"state"}, // "idle", "in_use"
	)

	SQLPoolWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sql_pool_waiters",
			Help: "Callers currently blocked waiting for a pooled connection",
		},
	)

	SQLPoolAcquireDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sql_pool_acquire_duration_seconds",
			Help:    "Time spent acquiring a pooled connection",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	SQLPoolEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_pool_events_total",
			Help: "Pool lifecycle events",
		},
		[]string{"event"}, // "timeout", "connect_failed", "broken"
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "sql_result"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache_type", "reason"}, // reason: "capacity", "expired", "clear"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRequestDBCalls = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "api_request_db_calls",
			Help:    "SQL client calls made while serving one request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordSQLCall records one SQL client call. errorKind is empty on success.
func RecordSQLCall(operation string, duration time.Duration, cached bool, errorKind string) {
	SQLQueryDuration.WithLabelValues(operation, strconv.FormatBool(cached)).Observe(duration.Seconds())
	if errorKind != "" {
		SQLQueryErrors.WithLabelValues(operation, errorKind).Inc()
	}
}

// RecordPoolState publishes pool occupancy gauges.
func RecordPoolState(idle, inUse, waiting int) {
	SQLPoolConnections.WithLabelValues("idle").Set(float64(idle))
	SQLPoolConnections.WithLabelValues("in_use").Set(float64(inUse))
	SQLPoolWaiters.Set(float64(waiting))
}

// RecordPoolAcquire records how long an acquire took and, on failure, why.
func RecordPoolAcquire(duration time.Duration, event string) {
	SQLPoolAcquireDuration.Observe(duration.Seconds())
	if event != "" {
		SQLPoolEvents.WithLabelValues(event).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
