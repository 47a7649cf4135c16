// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/vendorbase/internal/config"
	"github.com/tomtom215/vendorbase/internal/policy"
	"github.com/tomtom215/vendorbase/internal/pool"
)

// fakeSession records what ran on it.
type fakeSession struct {
	id int
	b  *fakeBackend
}

func (s *fakeSession) query(_ context.Context, statement string, args []any) (*ResultSet, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.queries = append(s.b.queries, statement)
	if s.b.queryErr != nil {
		return nil, s.b.queryErr
	}
	return &ResultSet{
		Columns: []string{"id", "name", "payload"},
		Rows:    [][]any{{int64(len(args)), "Acme", []byte("raw")}},
	}, nil
}

func (s *fakeSession) exec(_ context.Context, statement string, _ []any) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.execs = append(s.b.execs, statement)
	return s.b.execErr
}

func (s *fakeSession) ping(context.Context) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.b.pingErr
}

type releaseRecord struct {
	id     int
	broken bool
}

// fakeBackend hands out numbered sessions and records releases.
type fakeBackend struct {
	mu         sync.Mutex
	opened     int
	released   []releaseRecord
	queries    []string
	execs      []string
	acquireErr error
	queryErr   error
	execErr    error
	pingErr    error
	closed     bool
}

func (b *fakeBackend) name() string { return "fake" }

func (b *fakeBackend) prepare(statement string, params []any) (string, []any, error) {
	stmt, err := rewritePlaceholders(statement, styleQuestion, len(params))
	return stmt, params, err
}

func (b *fakeBackend) acquire(context.Context, time.Duration) (session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.acquireErr != nil {
		return nil, b.acquireErr
	}
	b.opened++
	return &fakeSession{id: b.opened, b: b}, nil
}

func (b *fakeBackend) release(s session, broken bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = append(b.released, releaseRecord{id: s.(*fakeSession).id, broken: broken})
}

func (b *fakeBackend) poolStats() (pool.Stats, bool) { return pool.Stats{}, false }

func (b *fakeBackend) evictIdle() int { return 0 }

func (b *fakeBackend) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBackend) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

func (b *fakeBackend) queryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queries)
}

func (b *fakeBackend) releases() []releaseRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]releaseRecord(nil), b.released...)
}

// testConfig returns a complete config without going through koanf.
func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		Warehouse: config.WarehouseConfig{
			Hostname:    "acme-xy123.snowflakecomputing.com",
			HTTPPath:    "/procurement/core",
			AccessToken: "test-token",
		},
		Local: config.LocalConfig{Driver: "sqlite"},
		Pool: config.PoolConfig{
			Enabled:        true,
			MaxSize:        2,
			AcquireTimeout: time.Second,
			IdleTTL:        time.Minute,
		},
		Cache: config.CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 16,
		},
		Trace: config.TraceConfig{
			MaxPreviewLength: 200,
			SlowQueryMS:      500,
		},
		Policy: config.PolicyConfig{
			Enforce:           true,
			AllowedWriteVerbs: policy.DefaultAllowedWrites,
		},
		Breaker: config.BreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			MaxRequests:      1,
		},
	}
}
