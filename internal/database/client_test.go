// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/vendorbase/internal/config"
	"github.com/tomtom215/vendorbase/internal/perf"
	"github.com/tomtom215/vendorbase/internal/policy"
	"github.com/tomtom215/vendorbase/internal/pool"
)

func newTestClient(t *testing.T, b *fakeBackend, mutate func(*testConfigOpts)) *Client {
	t.Helper()
	opts := &testConfigOpts{cfg: testConfig()}
	if mutate != nil {
		mutate(opts)
	}
	all := append([]Option{withBackend(b)}, opts.extra...)
	c, err := New(opts.cfg, all...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type testConfigOpts struct {
	cfg   *config.Config
	extra []Option
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestClient_QueryCachesReads(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)

	ctx, req := perf.Start(context.Background(), "req-1", "GET", "/vendors", 500)

	first, err := c.Query(ctx, "SELECT id, name FROM vendors WHERE status = ?", "active")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	second, err := c.Query(ctx, "SELECT id,   name FROM vendors WHERE status = ?", "active")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Cached result differs:\n%v\n%v", first, second)
	}
	if n := b.queryCount(); n != 1 {
		t.Errorf("Backend ran %d queries, want 1", n)
	}
	if n := b.openCount(); n != 1 {
		t.Errorf("Backend opened %d sessions, want 1", n)
	}

	snap := req.Stop()
	if snap.DBCalls != 2 || snap.DBCacheHits != 1 {
		t.Errorf("Telemetry = %d calls / %d cache hits, want 2 / 1", snap.DBCalls, snap.DBCacheHits)
	}
}

func TestClient_CachedValuesAreIsolated(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)
	ctx := context.Background()

	first, err := c.Query(ctx, "SELECT * FROM vendors")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	first.Rows[0][1] = "Mutated"
	first.Rows[0][2].([]byte)[0] = 'X'

	second, err := c.Query(ctx, "SELECT * FROM vendors")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if second.Rows[0][1] != "Acme" || string(second.Rows[0][2].([]byte)) != "raw" {
		t.Errorf("Cache entry was corrupted by caller mutation: %v", second.Rows[0])
	}

	second.Rows[0][1] = "Again"
	third, _ := c.Query(ctx, "SELECT * FROM vendors")
	if third.Rows[0][1] != "Acme" {
		t.Errorf("Cache entry was corrupted through a cached read: %v", third.Rows[0])
	}
}

func TestClient_ExecuteClearsCache(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)
	ctx := context.Background()

	if _, err := c.Query(ctx, "SELECT * FROM contracts"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	// Statement is unrelated to the cached table on purpose.
	if err := c.Execute(ctx, "UPDATE projects SET status = ? WHERE id = ?", "closed", 7); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := c.Query(ctx, "SELECT * FROM contracts"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if n := b.queryCount(); n != 2 {
		t.Errorf("Backend ran %d queries, want 2 (cache miss after write)", n)
	}
	if got := c.Stats().Cache.Size; got != 1 {
		t.Errorf("Cache size = %d, want 1", got)
	}
}

func TestClient_FailedExecuteKeepsCache(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)
	ctx := context.Background()

	if _, err := c.Query(ctx, "SELECT * FROM contracts"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	b.execErr = errors.New("constraint violated")
	if err := c.Execute(ctx, "DELETE FROM contracts WHERE id = ?", 1); !errors.Is(err, ErrExecution) {
		t.Fatalf("Execute() error = %v, want ErrExecution", err)
	}
	if got := c.Stats().Cache.Size; got != 1 {
		t.Errorf("Cache size = %d, want 1 after failed write", got)
	}
}

func TestClient_CacheEvictionScenario(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, func(o *testConfigOpts) { o.cfg.Cache.MaxEntries = 1 })
	ctx := context.Background()

	for _, stmt := range []string{"SELECT 'X'", "SELECT 'Y'", "SELECT 'X'"} {
		if _, err := c.Query(ctx, stmt); err != nil {
			t.Fatalf("Query(%q) error = %v", stmt, err)
		}
	}
	if n := b.queryCount(); n != 3 {
		t.Errorf("Backend ran %d queries, want 3 (X evicted by Y)", n)
	}
}

func TestClient_CacheExpiry(t *testing.T) {
	b := &fakeBackend{}
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newTestClient(t, b, func(o *testConfigOpts) {
		o.cfg.Cache.TTL = time.Minute
		o.extra = append(o.extra, withClock(clk.Now))
	})
	ctx := context.Background()

	_, _ = c.Query(ctx, "SELECT * FROM vendors")
	clk.now = clk.now.Add(2 * time.Minute)
	_, _ = c.Query(ctx, "SELECT * FROM vendors")

	if n := b.queryCount(); n != 2 {
		t.Errorf("Backend ran %d queries, want 2 after TTL expiry", n)
	}
}

func TestClient_Maintain(t *testing.T) {
	b := &fakeBackend{}
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newTestClient(t, b, func(o *testConfigOpts) {
		o.cfg.Cache.TTL = time.Minute
		o.extra = append(o.extra, withClock(clk.Now))
	})
	ctx := context.Background()

	_, _ = c.Query(ctx, "SELECT * FROM vendors")
	_, _ = c.Query(ctx, "SELECT * FROM contracts")
	clk.now = clk.now.Add(2 * time.Minute)

	expired, evicted := c.Maintain()
	if expired != 2 || evicted != 0 {
		t.Errorf("Maintain() = %d, %d; want 2, 0", expired, evicted)
	}
	if n := c.Stats().Cache.Size; n != 0 {
		t.Errorf("Expected empty cache after maintenance, size %d", n)
	}

	_ = c.Close()
	if expired, evicted := c.Maintain(); expired != 0 || evicted != 0 {
		t.Errorf("Maintain() after Close = %d, %d; want 0, 0", expired, evicted)
	}
}

func TestClient_OnlySelectAndWithAreCached(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Query(ctx, "SHOW TABLES"); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if _, err := c.Query(ctx, "WITH v AS (SELECT 1) SELECT * FROM v"); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
	}
	// SHOW twice, WITH once.
	if n := b.queryCount(); n != 3 {
		t.Errorf("Backend ran %d queries, want 3", n)
	}
}

func TestClient_CacheDisabled(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, func(o *testConfigOpts) { o.cfg.Cache.Enabled = false })
	ctx := context.Background()

	_, _ = c.Query(ctx, "SELECT 1")
	_, _ = c.Query(ctx, "SELECT 1")
	if n := b.queryCount(); n != 2 {
		t.Errorf("Backend ran %d queries, want 2 with cache disabled", n)
	}
	if err := c.Execute(ctx, "INSERT INTO t VALUES (1)"); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestClient_PolicyInProduction(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, func(o *testConfigOpts) { o.cfg.Environment = "production" })
	ctx := context.Background()

	err := c.Execute(ctx, "DROP TABLE vendors")
	if !errors.Is(err, ErrPolicy) {
		t.Fatalf("Execute(DROP) error = %v, want ErrPolicy", err)
	}
	if !errors.Is(err, policy.ErrViolation) {
		t.Errorf("Expected policy violation cause, got %v", err)
	}
	if KindOf(err) != KindPolicy {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindPolicy)
	}
	if n := b.openCount(); n != 0 {
		t.Errorf("Policy rejection opened %d connections, want 0", n)
	}

	if _, err := c.Query(ctx, "SELECT * FROM vendors"); err != nil {
		t.Errorf("Query(SELECT) error = %v", err)
	}
	if _, err := c.Query(ctx, "DELETE FROM vendors"); !errors.Is(err, ErrPolicy) {
		t.Errorf("Query(DELETE) error = %v, want ErrPolicy", err)
	}
	if err := c.Execute(ctx, "INSERT INTO vendors (name) VALUES (?)", "Acme"); err != nil {
		t.Errorf("Execute(INSERT) error = %v", err)
	}
	if err := c.Execute(ctx, "GRANT SELECT ON vendors TO role analyst"); !errors.Is(err, ErrPolicy) {
		t.Errorf("Execute(GRANT) error = %v, want ErrPolicy", err)
	}
}

func TestClient_PolicyOffOutsideProduction(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)

	if err := c.Execute(context.Background(), "DROP TABLE scratch"); err != nil {
		t.Errorf("Execute(DROP) in development error = %v", err)
	}
}

func TestClient_BrokenConnectionIsDiscarded(t *testing.T) {
	b := &fakeBackend{queryErr: errors.New("session expired: connection reset by peer")}
	c := newTestClient(t, b, nil)

	_, err := c.Query(context.Background(), "SELECT * FROM vendors")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Query() error = %v, want ErrConnection", err)
	}
	rel := b.releases()
	if len(rel) != 1 || !rel[0].broken {
		t.Errorf("releases = %+v, want one broken release", rel)
	}
}

func TestClient_QueryErrorKeepsConnection(t *testing.T) {
	b := &fakeBackend{queryErr: errors.New("SQL compilation error: invalid identifier 'NAMEE'")}
	c := newTestClient(t, b, nil)

	_, err := c.Query(context.Background(), "SELECT namee FROM vendors")
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("Query() error = %v, want ErrQuery", err)
	}
	if errors.Unwrap(err) != b.queryErr {
		t.Errorf("Expected driver error as cause, got %v", errors.Unwrap(err))
	}
	if rel := b.releases(); len(rel) != 1 || rel[0].broken {
		t.Errorf("releases = %+v, want one healthy release", rel)
	}
	if got := err.Error(); got != "query: query execution failed" {
		t.Errorf("Error() = %q", got)
	}
}

func TestClient_CustomBrokenPredicate(t *testing.T) {
	b := &fakeBackend{execErr: errors.New("warehouse suspended")}
	c := newTestClient(t, b, func(o *testConfigOpts) {
		o.extra = append(o.extra, WithBrokenConnPredicate(func(err error) bool { return true }))
	})

	err := c.Execute(context.Background(), "UPDATE vendors SET name = 'x'")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Execute() error = %v, want ErrConnection", err)
	}
	if rel := b.releases(); len(rel) != 1 || !rel[0].broken {
		t.Errorf("releases = %+v, want broken release", rel)
	}
}

func TestClient_AcquireFailure(t *testing.T) {
	b := &fakeBackend{acquireErr: pool.ErrTimeout}
	c := newTestClient(t, b, nil)

	ctx, req := perf.Start(context.Background(), "req-2", "GET", "/contracts", 500)
	_, err := c.Query(ctx, "SELECT * FROM contracts")
	if !errors.Is(err, ErrConnection) || !errors.Is(err, pool.ErrTimeout) {
		t.Fatalf("Query() error = %v, want ErrConnection wrapping pool timeout", err)
	}
	if snap := req.Stop(); snap.DBErrors != 1 || snap.DBCalls != 1 {
		t.Errorf("Telemetry = %+v, want one erroring call", snap)
	}
}

func TestClient_PlaceholderMismatch(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)

	if _, err := c.Query(context.Background(), "SELECT * FROM vendors WHERE id = ?"); !errors.Is(err, ErrQuery) {
		t.Errorf("Query() error = %v, want ErrQuery", err)
	}
	if err := c.Execute(context.Background(), "DELETE FROM vendors", 1); !errors.Is(err, ErrExecution) {
		t.Errorf("Execute() error = %v, want ErrExecution", err)
	}
	if n := b.openCount(); n != 0 {
		t.Errorf("Prepare failures opened %d connections", n)
	}
}

func TestClient_SlowQuerySamplesCapped(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, func(o *testConfigOpts) { o.cfg.Cache.Enabled = false })

	// A zero threshold makes every call slow.
	ctx, req := perf.Start(context.Background(), "req-3", "GET", "/report", 0)
	for i := 0; i < perf.MaxSlowSamples+2; i++ {
		if _, err := c.Query(ctx, "SELECT * FROM vendors WHERE id = "+strconv.Itoa(i)); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
	}

	snap := req.Stop()
	if snap.DBCalls != perf.MaxSlowSamples+2 {
		t.Errorf("db_calls = %d, want %d", snap.DBCalls, perf.MaxSlowSamples+2)
	}
	if len(snap.SlowQueries) != perf.MaxSlowSamples {
		t.Errorf("slow samples = %d, want %d", len(snap.SlowQueries), perf.MaxSlowSamples)
	}
	if snap.SlowQueries[0].StatementHash == "" {
		t.Error("Expected slow samples to carry a statement hash")
	}
}

func TestClient_Ping(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	b.pingErr = errors.New("connection refused")
	if err := c.Ping(context.Background()); !errors.Is(err, ErrConnection) {
		t.Errorf("Ping() error = %v, want ErrConnection", err)
	}
}

func TestClient_Close(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, nil)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if !b.closed {
		t.Error("Expected backend to be closed")
	}

	_, err := c.Query(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrConnection) || !errors.Is(err, ErrClientClosed) {
		t.Errorf("Query() after Close error = %v, want ErrClientClosed", err)
	}
}

func TestClient_Stats(t *testing.T) {
	b := &fakeBackend{}
	c := newTestClient(t, b, func(o *testConfigOpts) { o.cfg.Environment = "prod" })

	_, _ = c.Query(context.Background(), "SELECT 1")
	s := c.Stats()
	if s.Backend != "fake" || s.Pooled || !s.CacheEnabled || !s.PolicyActive {
		t.Errorf("Unexpected stats %+v", s)
	}
	if s.Cache.Size != 1 || s.Cache.Misses != 1 {
		t.Errorf("Unexpected cache stats %+v", s.Cache)
	}
}
