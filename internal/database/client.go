// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vendorbase/internal/cache"
	"github.com/tomtom215/vendorbase/internal/config"
	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/perf"
	"github.com/tomtom215/vendorbase/internal/policy"
	"github.com/tomtom215/vendorbase/internal/pool"
)

const (
	opQuery   = "query"
	opExecute = "execute"
	opPing    = "ping"
)

// Client is the SQL data-access client. It is safe for concurrent use.
type Client struct {
	backend        backend
	cache          *cache.ResultCache[*ResultSet]
	policy         *policy.Enforcer
	recorder       *perf.Recorder
	isBroken       BrokenConnPredicate
	acquireTimeout time.Duration
	logger         zerolog.Logger
	closed         atomic.Bool
}

// Stats is a point-in-time view of the client.
type Stats struct {
	Backend      string         `json:"backend"`
	Pooled       bool           `json:"pooled"`
	Pool         pool.Stats     `json:"pool"`
	CacheEnabled bool           `json:"cache_enabled"`
	Cache        cache.LRUStats `json:"cache"`
	PolicyActive bool           `json:"policy_active"`
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	isBroken BrokenConnPredicate
	recorder *perf.Recorder
	backend  backend
	now      func() time.Time
}

// WithBrokenConnPredicate replaces IsConnectionError.
func WithBrokenConnPredicate(fn BrokenConnPredicate) Option {
	return func(o *options) {
		if fn != nil {
			o.isBroken = fn
		}
	}
}

// WithRecorder replaces the telemetry recorder built from cfg.Trace.
func WithRecorder(r *perf.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// withBackend injects a backend. Used by tests.
func withBackend(b backend) Option {
	return func(o *options) { o.backend = b }
}

// withClock sets the result cache clock. Used by tests.
func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a client for cfg. The backend is chosen here, once: the local
// embedded database when cfg.Local.Enabled, otherwise the warehouse.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	o := options{isBroken: IsConnectionError}
	for _, opt := range opts {
		opt(&o)
	}

	b := o.backend
	if b == nil {
		var err error
		if cfg.LocalMode() {
			b, err = newLocalBackend(cfg.Local, cfg.QualifiersToStrip())
		} else {
			b, err = newWarehouseBackend(cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s backend: %w", backendName(cfg), err)
		}
	}

	if o.recorder == nil {
		o.recorder = perf.NewRecorder(perf.RecorderConfig{
			TraceAll:         cfg.Trace.Enabled,
			SlowQueryMS:      cfg.Trace.SlowQueryMS,
			MaxPreviewLength: cfg.Trace.MaxPreviewLength,
		})
	}

	c := &Client{
		backend: b,
		cache: cache.NewResultCache[*ResultSet](cache.ResultConfig{
			Enabled:    cfg.Cache.Enabled,
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
			Now:        o.now,
		}, (*ResultSet).Clone),
		policy: policy.NewEnforcer(policy.Config{
			Environment:   cfg.Environment,
			Enforce:       cfg.Policy.Enforce,
			LocalMode:     cfg.LocalMode(),
			AllowedWrites: cfg.Policy.AllowedWriteVerbs,
		}),
		recorder:       o.recorder,
		isBroken:       o.isBroken,
		acquireTimeout: cfg.Pool.AcquireTimeout,
		logger:         logging.WithComponent("sql_client"),
	}

	c.logger.Info().
		Str("backend", b.name()).
		Str("environment", cfg.Environment).
		Bool("policy_active", c.policy.Active()).
		Bool("cache_enabled", c.cache.Enabled()).
		Msg("SQL client initialized")

	return c, nil
}

func backendName(cfg *config.Config) string {
	if cfg.LocalMode() {
		return "local"
	}
	return "warehouse"
}

// Query runs a read and returns its rows. SELECT and WITH results are served
// from and stored in the result cache.
func (c *Client) Query(ctx context.Context, statement string, params ...any) (*ResultSet, error) {
	start := time.Now()
	rs, cached, err := c.query(ctx, statement, params)

	call := perf.Call{
		Operation: opQuery,
		Statement: statement,
		Elapsed:   time.Since(start),
		Cached:    cached,
		Rows:      rs.Len(),
	}
	if err != nil {
		call.ErrorKind = string(KindOf(err))
	}
	c.recorder.Record(ctx, call)

	return rs, err
}

func (c *Client) query(ctx context.Context, statement string, params []any) (*ResultSet, bool, error) {
	// PREPARE
	prepared, args, err := c.backend.prepare(statement, params)
	if err != nil {
		return nil, false, newError(KindQuery, opQuery, err)
	}

	// POLICY_CHECK
	if err := c.policy.Check(statement, true); err != nil {
		return nil, false, newError(KindPolicy, opQuery, err)
	}

	// CACHE_CHECK
	key, cacheable := c.cacheKey(statement, params)
	if cacheable {
		if rs, ok := c.cache.Get(key); ok {
			return rs, true, nil
		}
	}

	// ACQUIRE
	s, err := c.acquire(ctx, opQuery)
	if err != nil {
		return nil, false, err
	}

	// EXECUTE
	rs, err := s.query(ctx, prepared, args)
	if err != nil {
		return nil, false, c.fail(ctx, s, opQuery, KindQuery, err)
	}

	// CACHE_STORE, RELEASE
	if cacheable {
		c.cache.Set(key, rs)
	}
	c.backend.release(s, false)
	return rs, false, nil
}

// Execute runs a write. On success the whole result cache is cleared before
// Execute returns.
func (c *Client) Execute(ctx context.Context, statement string, params ...any) error {
	start := time.Now()
	err := c.execute(ctx, statement, params)

	call := perf.Call{
		Operation: opExecute,
		Statement: statement,
		Elapsed:   time.Since(start),
	}
	if err != nil {
		call.ErrorKind = string(KindOf(err))
	}
	c.recorder.Record(ctx, call)

	return err
}

func (c *Client) execute(ctx context.Context, statement string, params []any) error {
	prepared, args, err := c.backend.prepare(statement, params)
	if err != nil {
		return newError(KindExecution, opExecute, err)
	}

	if err := c.policy.Check(statement, false); err != nil {
		return newError(KindPolicy, opExecute, err)
	}

	s, err := c.acquire(ctx, opExecute)
	if err != nil {
		return err
	}

	if err := s.exec(ctx, prepared, args); err != nil {
		return c.fail(ctx, s, opExecute, KindExecution, err)
	}

	// CACHE_CLEAR: no table-level invalidation, every write clears all reads.
	c.cache.Clear()
	c.backend.release(s, false)
	return nil
}

// Ping checks that a connection can be obtained and is alive.
func (c *Client) Ping(ctx context.Context) error {
	s, err := c.acquire(ctx, opPing)
	if err != nil {
		return err
	}
	if err := s.ping(ctx); err != nil {
		return c.fail(ctx, s, opPing, KindConnection, err)
	}
	c.backend.release(s, false)
	return nil
}

func (c *Client) acquire(ctx context.Context, op string) (session, error) {
	if c.closed.Load() {
		return nil, newError(KindConnection, op, ErrClientClosed)
	}
	s, err := c.backend.acquire(ctx, c.acquireTimeout)
	if err != nil {
		logging.Ctx(ctx).Warn().
			Str("component", "sql_client").
			Str("backend", c.backend.name()).
			Str("operation", op).
			Str("error", logging.RedactError(err.Error())).
			Msg("Failed to acquire SQL connection")
		return nil, newError(KindConnection, op, err)
	}
	return s, nil
}

// fail releases s, discarding it when the error looks like a dead
// connection, and returns the typed error.
func (c *Client) fail(ctx context.Context, s session, op string, kind Kind, err error) error {
	broken := c.isBroken(err)
	c.backend.release(s, broken)
	if broken {
		kind = KindConnection
	}

	logging.Ctx(ctx).Debug().
		Str("component", "sql_client").
		Str("operation", op).
		Str("error_kind", string(kind)).
		Bool("broken", broken).
		Str("error", logging.RedactError(err.Error())).
		Msg("SQL call failed")

	return newError(kind, op, err)
}

// cacheKey reports whether statement is cacheable and its key.
func (c *Client) cacheKey(statement string, params []any) (string, bool) {
	if !c.cache.Enabled() || !policy.IsRead(statement) {
		return "", false
	}
	key, err := cache.Key(statement, params)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Parameters not cacheable, skipping result cache")
		return "", false
	}
	return key, true
}

// Stats returns pool and cache state.
func (c *Client) Stats() Stats {
	ps, pooled := c.backend.poolStats()
	return Stats{
		Backend:      c.backend.name(),
		Pooled:       pooled,
		Pool:         ps,
		CacheEnabled: c.cache.Enabled(),
		Cache:        c.cache.Stats(),
		PolicyActive: c.policy.Active(),
	}
}

// Maintain sweeps expired cache entries and idle pooled connections. The
// client already does both lazily; Maintain keeps quiet periods from holding
// stale sessions open.
func (c *Client) Maintain() (expired, evicted int) {
	if c.closed.Load() {
		return 0, 0
	}
	expired = c.cache.CleanupExpired()
	evicted = c.backend.evictIdle()
	if expired > 0 || evicted > 0 {
		c.logger.Debug().
			Int("cache_expired", expired).
			Int("idle_evicted", evicted).
			Msg("SQL client maintenance")
	}
	return expired, evicted
}

// Close releases every connection and empties the cache. Calls made after
// Close fail with a connection error. Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cache.Clear()
	if err := c.backend.close(); err != nil {
		return fmt.Errorf("failed to close %s backend: %w", c.backend.name(), err)
	}
	c.logger.Info().Str("backend", c.backend.name()).Msg("SQL client closed")
	return nil
}
