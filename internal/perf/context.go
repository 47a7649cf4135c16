// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package perf

import (
	"context"
	"sync"
	"time"
)

// MaxSlowSamples caps the slow call samples kept per request.
const MaxSlowSamples = 10

type contextKey struct{}

// Call describes one SQL client call.
type Call struct {
	Operation string // "query" or "execute"
	Statement string
	Elapsed   time.Duration
	Cached    bool
	Rows      int

	// ErrorKind is empty on success.
	ErrorKind string

	// StatementHash and StatementPreview are derived from Statement when empty.
	StatementHash    string
	StatementPreview string
}

// ElapsedMS returns the call duration in fractional milliseconds.
func (c Call) ElapsedMS() float64 {
	return float64(c.Elapsed) / float64(time.Millisecond)
}

// SlowSample is a captured slow call.
type SlowSample struct {
	Operation        string  `json:"operation"`
	ElapsedMS        float64 `json:"elapsed_ms"`
	Cached           bool    `json:"cached"`
	Rows             int     `json:"rows"`
	StatementHash    string  `json:"statement_hash"`
	StatementPreview string  `json:"statement_preview"`
	Error            bool    `json:"error"`
}

// Snapshot is a copy of a request's counters.
type Snapshot struct {
	RequestID   string        `json:"request_id"`
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	SlowQueryMS int           `json:"slow_query_ms"`
	DBCalls     int           `json:"db_calls"`
	DBTotalMS   float64       `json:"db_total_ms"`
	DBMaxMS     float64       `json:"db_max_ms"`
	DBCacheHits int           `json:"db_cache_hits"`
	DBErrors    int           `json:"db_errors"`
	SlowQueries []SlowSample  `json:"slow_queries"`
}

// Request accumulates SQL activity for one inbound request.
// Handlers may fan out, so all methods are safe for concurrent use.
// A nil *Request ignores Record and returns zero snapshots.
type Request struct {
	mu      sync.Mutex
	snap    Snapshot
	stopped bool
}

// Start attaches a new accumulator to ctx.
func Start(ctx context.Context, requestID, method, path string, slowQueryMS int) (context.Context, *Request) {
	req := &Request{
		snap: Snapshot{
			RequestID:   requestID,
			Method:      method,
			Path:        path,
			StartedAt:   time.Now(),
			SlowQueryMS: slowQueryMS,
			SlowQueries: make([]SlowSample, 0, MaxSlowSamples),
		},
	}
	return context.WithValue(ctx, contextKey{}, req), req
}

// FromContext returns the accumulator in ctx, or nil.
func FromContext(ctx context.Context) *Request {
	if ctx == nil {
		return nil
	}
	req, _ := ctx.Value(contextKey{}).(*Request)
	return req
}

// SlowQueryMS returns the request's slow call threshold.
func (r *Request) SlowQueryMS() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.SlowQueryMS
}

// Record adds one call to the counters. It reports whether the call was at or
// above the slow threshold.
func (r *Request) Record(c Call) bool {
	if r == nil {
		return false
	}
	elapsed := c.ElapsedMS()

	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.snap
	s.DBCalls++
	s.DBTotalMS += elapsed
	if elapsed > s.DBMaxMS {
		s.DBMaxMS = elapsed
	}
	if c.Cached {
		s.DBCacheHits++
	}
	if c.ErrorKind != "" {
		s.DBErrors++
	}

	slow := elapsed >= float64(s.SlowQueryMS)
	if slow && len(s.SlowQueries) < MaxSlowSamples {
		hash, preview := c.StatementHash, c.StatementPreview
		if hash == "" {
			hash = StatementHash(c.Statement)
		}
		if preview == "" {
			preview = StatementPreview(c.Statement, DefaultPreviewLength)
		}
		s.SlowQueries = append(s.SlowQueries, SlowSample{
			Operation:        c.Operation,
			ElapsedMS:        elapsed,
			Cached:           c.Cached,
			Rows:             c.Rows,
			StatementHash:    hash,
			StatementPreview: preview,
			Error:            c.ErrorKind != "",
		})
	}
	return slow
}

// Snapshot returns a copy of the current counters.
func (r *Request) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyLocked()
}

// Stop freezes the request duration and returns the final counters.
// Calling Stop again returns the same duration.
func (r *Request) Stop() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stopped {
		r.stopped = true
		r.snap.Duration = time.Since(r.snap.StartedAt)
	}
	return r.copyLocked()
}

func (r *Request) copyLocked() Snapshot {
	out := r.snap
	out.SlowQueries = append([]SlowSample(nil), r.snap.SlowQueries...)
	return out
}
