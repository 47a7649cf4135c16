// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/perf"
)

// callsHandler records n calls of the given duration into the request scope.
func callsHandler(n int, elapsed time.Duration, errorKind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := perf.FromContext(r.Context())
		for i := 0; i < n; i++ {
			req.Record(perf.Call{
				Operation: "query",
				Statement: "SELECT * FROM vendors WHERE id = ?",
				Elapsed:   elapsed,
				Cached:    i%2 == 1,
				ErrorKind: errorKind,
			})
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestSQLTelemetry_ScopeAvailableToHandler(t *testing.T) {
	tel := NewSQLTelemetry(250, 10)
	var threshold int
	handler := RequestID(tel.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		threshold = perf.FromContext(r.Context()).SlowQueryMS()
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if threshold != 250 {
		t.Errorf("SlowQueryMS() = %d, want 250", threshold)
	}
	if n := len(tel.Recent(0)); n != 0 {
		t.Errorf("Expected requests without SQL calls to be skipped, kept %d", n)
	}
}

func TestSQLTelemetry_RecordsSummary(t *testing.T) {
	tel := NewSQLTelemetry(1000, 10)
	handler := RequestID(tel.Middleware(callsHandler(4, 2*time.Millisecond, "")))

	req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	recent := tel.Recent(5)
	if len(recent) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(recent))
	}
	s := recent[0]
	if s.RequestID != "req-1" || s.Method != http.MethodGet || s.Path != "/vendors" {
		t.Errorf("Unexpected identity %q %q %q", s.RequestID, s.Method, s.Path)
	}
	if s.DBCalls != 4 || s.DBCacheHits != 2 || s.DBErrors != 0 {
		t.Errorf("Unexpected counters %+v", s)
	}
	if len(s.SlowQueries) != 0 {
		t.Errorf("Expected no slow samples below threshold, got %d", len(s.SlowQueries))
	}
	if s.Duration <= 0 {
		t.Error("Expected request duration to be frozen")
	}
}

func TestSQLTelemetry_SlowRequestLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	tel := NewSQLTelemetry(0, 10)
	handler := RequestID(tel.Middleware(callsHandler(12, time.Millisecond, "")))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/contracts", nil))

	s := tel.Recent(1)[0]
	if s.DBCalls != 12 {
		t.Errorf("db_calls = %d, want 12", s.DBCalls)
	}
	if len(s.SlowQueries) != perf.MaxSlowSamples {
		t.Errorf("slow samples = %d, want %d", len(s.SlowQueries), perf.MaxSlowSamples)
	}

	out := buf.String()
	if !strings.Contains(out, `"event":"sql_request_summary"`) {
		t.Fatalf("Expected summary log line, got %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("Expected warn level for slow request, got %s", out)
	}
	if !strings.Contains(out, `"request_id"`) {
		t.Errorf("Expected request_id on summary, got %s", out)
	}
	if strings.Contains(out, "vendors WHERE") {
		t.Error("Summary line must not carry statement text")
	}
}

func TestSQLTelemetry_RouteLabelFromChi(t *testing.T) {
	tel := NewSQLTelemetry(1000, 10)
	r := chi.NewRouter()
	r.Use(RequestID, tel.Middleware)
	r.Get("/vendors/{id}", callsHandler(1, time.Millisecond, ""))

	for _, path := range []string{"/vendors/1", "/vendors/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	stats := tel.Stats()
	if len(stats) != 1 {
		t.Fatalf("Expected requests grouped into 1 endpoint, got %d", len(stats))
	}
	if stats[0].Endpoint != "GET /vendors/{id}" || stats[0].RequestCount != 2 {
		t.Errorf("Unexpected stats %+v", stats[0])
	}
}

func TestSQLTelemetry_WindowIsBounded(t *testing.T) {
	tel := NewSQLTelemetry(1000, 3)
	handler := RequestID(tel.Middleware(callsHandler(1, time.Millisecond, "")))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
		req.Header.Set(RequestIDHeader, "req-"+string(rune('a'+i)))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	recent := tel.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("Expected window of 3, got %d", len(recent))
	}
	if recent[0].RequestID != "req-c" || recent[2].RequestID != "req-e" {
		t.Errorf("Expected oldest entries dropped, got %q..%q", recent[0].RequestID, recent[2].RequestID)
	}
	if got := tel.Recent(2); len(got) != 2 || got[1].RequestID != "req-e" {
		t.Errorf("Recent(2) returned %d entries", len(got))
	}
}

func TestSQLTelemetry_Stats(t *testing.T) {
	tel := NewSQLTelemetry(1000, 10)
	tel.add(perf.Snapshot{Method: "GET", Path: "/vendors", DBCalls: 2, DBTotalMS: 10, DBCacheHits: 1})
	tel.add(perf.Snapshot{Method: "GET", Path: "/vendors", DBCalls: 4, DBTotalMS: 30, DBErrors: 1})
	tel.add(perf.Snapshot{Method: "POST", Path: "/projects", DBCalls: 1, DBTotalMS: 5})

	stats := tel.Stats()
	if len(stats) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(stats))
	}
	v := stats[0]
	if v.Endpoint != "GET /vendors" {
		t.Fatalf("Expected busiest endpoint first, got %q", v.Endpoint)
	}
	if v.AvgDBCalls != 3 || v.AvgDBMS != 20 || v.MaxDBMS != 30 || v.P50DBMS != 10 {
		t.Errorf("Unexpected aggregates %+v", v)
	}
	if v.CacheHits != 1 || v.Errors != 1 {
		t.Errorf("Unexpected totals %+v", v)
	}
}

func TestSQLTelemetry_Handler(t *testing.T) {
	tel := NewSQLTelemetry(500, 10)
	tel.add(perf.Snapshot{RequestID: "a", Method: "GET", Path: "/vendors", DBCalls: 1})
	tel.add(perf.Snapshot{RequestID: "b", Method: "GET", Path: "/vendors", DBCalls: 1})

	w := httptest.NewRecorder()
	tel.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/sqlperf?limit=1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp sqlPerfResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SlowQueryMS != 500 {
		t.Errorf("slow_query_ms = %d, want 500", resp.SlowQueryMS)
	}
	if len(resp.Recent) != 1 || resp.Recent[0].RequestID != "b" {
		t.Errorf("Expected only the latest summary, got %+v", resp.Recent)
	}
	if len(resp.Endpoints) != 1 {
		t.Errorf("Expected 1 endpoint, got %d", len(resp.Endpoints))
	}
}

func TestSQLTelemetry_HandlerBadLimit(t *testing.T) {
	tel := NewSQLTelemetry(500, 10)
	for _, q := range []string{"limit=0", "limit=-2", "limit=abc"} {
		w := httptest.NewRecorder()
		tel.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/sqlperf?"+q, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(sorted, 0.5); got != 5 {
		t.Errorf("p50 = %v, want 5", got)
	}
	if got := percentile(sorted, 0.99); got != 9 {
		t.Errorf("p99 = %v, want 9", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
}
