// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package middleware

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/metrics"
	"github.com/tomtom215/vendorbase/internal/perf"
)

// DefaultRecentRequests is how many request summaries SQLTelemetry keeps.
const DefaultRecentRequests = 200

// EndpointStats contains aggregated SQL statistics for an endpoint
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int64   `json:"request_count"`
	AvgDBCalls   float64 `json:"avg_db_calls"`
	AvgDBMS      float64 `json:"avg_db_ms"`
	P50DBMS      float64 `json:"p50_db_ms"`
	P95DBMS      float64 `json:"p95_db_ms"`
	P99DBMS      float64 `json:"p99_db_ms"`
	MaxDBMS      float64 `json:"max_db_ms"`
	CacheHits    int64   `json:"cache_hits"`
	Errors       int64   `json:"errors"`
	SlowQueries  int64   `json:"slow_queries"`
}

// SQLTelemetry opens a perf scope per request and remembers the summaries of
// requests that touched the database.
type SQLTelemetry struct {
	slowQueryMS int

	mu     sync.RWMutex
	recent []perf.Snapshot
	max    int
}

// NewSQLTelemetry creates the middleware. slowQueryMS becomes each request's
// slow call threshold; maxRecent bounds the summary window.
func NewSQLTelemetry(slowQueryMS, maxRecent int) *SQLTelemetry {
	if maxRecent <= 0 {
		maxRecent = DefaultRecentRequests
	}
	return &SQLTelemetry{
		slowQueryMS: slowQueryMS,
		recent:      make([]perf.Snapshot, 0, maxRecent),
		max:         maxRecent,
	}
}

// Middleware wraps next in a perf scope.
func (t *SQLTelemetry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, req := perf.Start(r.Context(), GetRequestID(r.Context()), r.Method, r.URL.Path, t.slowQueryMS)

		next.ServeHTTP(w, r.WithContext(ctx))

		snap := req.Stop()
		// chi fills the pattern in while routing, so read it after next.
		snap.Path = routePattern(r)
		metrics.APIRequestDBCalls.Observe(float64(snap.DBCalls))
		if snap.DBCalls == 0 {
			return
		}
		t.add(snap)

		logger := logging.Ctx(ctx)
		event := logger.Debug()
		if len(snap.SlowQueries) > 0 || snap.DBErrors > 0 {
			event = logger.Warn()
		}
		event.
			Str("event", "sql_request_summary").
			Str("method", snap.Method).
			Str("path", snap.Path).
			Dur("duration", snap.Duration).
			Int("db_calls", snap.DBCalls).
			Float64("db_total_ms", snap.DBTotalMS).
			Float64("db_max_ms", snap.DBMaxMS).
			Int("db_cache_hits", snap.DBCacheHits).
			Int("db_errors", snap.DBErrors).
			Int("slow_queries", len(snap.SlowQueries)).
			Msg("request sql summary")
	})
}

func (t *SQLTelemetry) add(s perf.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.recent = append(t.recent, s)
	if len(t.recent) > t.max {
		t.recent = t.recent[1:]
	}
}

// Recent returns up to n of the latest summaries, oldest first.
func (t *SQLTelemetry) Recent(n int) []perf.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 || n > len(t.recent) {
		n = len(t.recent)
	}
	out := make([]perf.Snapshot, n)
	copy(out, t.recent[len(t.recent)-n:])
	return out
}

// Stats aggregates the kept summaries per "METHOD path", busiest first.
func (t *SQLTelemetry) Stats() []EndpointStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	grouped := make(map[string][]perf.Snapshot)
	for _, s := range t.recent {
		key := s.Method + " " + s.Path
		grouped[key] = append(grouped[key], s)
	}

	stats := make([]EndpointStats, 0, len(grouped))
	for endpoint, snaps := range grouped {
		totals := make([]float64, len(snaps))
		st := EndpointStats{Endpoint: endpoint, RequestCount: int64(len(snaps))}
		var calls, dbMS float64
		for i, s := range snaps {
			totals[i] = s.DBTotalMS
			calls += float64(s.DBCalls)
			dbMS += s.DBTotalMS
			st.CacheHits += int64(s.DBCacheHits)
			st.Errors += int64(s.DBErrors)
			st.SlowQueries += int64(len(s.SlowQueries))
		}
		sort.Float64s(totals)

		st.AvgDBCalls = calls / float64(len(snaps))
		st.AvgDBMS = dbMS / float64(len(snaps))
		st.P50DBMS = percentile(totals, 0.50)
		st.P95DBMS = percentile(totals, 0.95)
		st.P99DBMS = percentile(totals, 0.99)
		st.MaxDBMS = totals[len(totals)-1]
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Endpoint < stats[j].Endpoint
	})
	return stats
}

// sqlPerfResponse is the /debug/sqlperf payload.
type sqlPerfResponse struct {
	GeneratedAt time.Time       `json:"generated_at"`
	SlowQueryMS int             `json:"slow_query_ms"`
	Endpoints   []EndpointStats `json:"endpoints"`
	Recent      []perf.Snapshot `json:"recent"`
}

// Handler serves endpoint stats and recent summaries as JSON.
// ?limit=N bounds the recent list (default 50).
func (t *SQLTelemetry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		resp := sqlPerfResponse{
			GeneratedAt: time.Now().UTC(),
			SlowQueryMS: t.slowQueryMS,
			Endpoints:   t.Stats(),
			Recent:      t.Recent(limit),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode sqlperf response")
		}
	}
}

// percentile picks from a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
