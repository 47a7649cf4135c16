// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vendorbase/internal/config"
	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/metrics"
	"github.com/tomtom215/vendorbase/internal/pool"
)

const breakerName = "warehouse-connect"

// warehouseConn is one physical warehouse session.
type warehouseConn struct {
	conn   *sql.Conn
	broken bool
}

func (c *warehouseConn) query(ctx context.Context, statement string, args []any) (*ResultSet, error) {
	rows, err := c.conn.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)
	return scanRows(rows)
}

func (c *warehouseConn) exec(ctx context.Context, statement string, args []any) error {
	_, err := c.conn.ExecContext(ctx, statement, args...)
	return err
}

func (c *warehouseConn) ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

// Close ends the session. A broken session is reported to database/sql as
// driver.ErrBadConn so the driver connection is dropped, not recycled.
func (c *warehouseConn) Close() error {
	if c.broken {
		_ = c.conn.Raw(func(any) error { return driver.ErrBadConn })
		return nil
	}
	return c.conn.Close()
}

// warehouseBackend serves calls from pooled Snowflake sessions.
type warehouseBackend struct {
	db           *sql.DB
	pool         *pool.Pool[*warehouseConn] // nil when pooling is disabled
	breaker      *gobreaker.CircuitBreaker[*warehouseConn]
	loginTimeout time.Duration
}

// newWarehouseBackend opens the gosnowflake connector described by cfg.
// database/sql keeps no idle connections: session reuse belongs to the pool.
func newWarehouseBackend(cfg *config.Config) (*warehouseBackend, error) {
	connector, err := newWarehouseConnector(cfg.Warehouse)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	db.SetMaxIdleConns(0)
	if cfg.Pool.Enabled {
		db.SetMaxOpenConns(cfg.Pool.MaxSize)
	}

	b, err := newWarehouseBackendWithDB(db, cfg)
	if err != nil {
		closeQuietly(db)
		return nil, err
	}
	return b, nil
}

// newWarehouseBackendWithDB wires pool and breaker around an existing handle.
func newWarehouseBackendWithDB(db *sql.DB, cfg *config.Config) (*warehouseBackend, error) {
	b := &warehouseBackend{
		db:           db,
		loginTimeout: cfg.Warehouse.LoginTimeout,
	}

	if cfg.Breaker.Enabled {
		b.breaker = newConnectBreaker(cfg.Breaker)
	}

	if cfg.Pool.Enabled {
		p, err := pool.New[*warehouseConn](b.connect, pool.Options{
			MaxSize: cfg.Pool.MaxSize,
			IdleTTL: cfg.Pool.IdleTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create warehouse pool: %w", err)
		}
		b.pool = p
	}
	return b, nil
}

// newConnectBreaker opens after FailureThreshold consecutive connect failures
// and probes again after Timeout.
func newConnectBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker[*warehouseConn] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[*warehouseConn](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Warehouse connect circuit breaker changed state")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *warehouseBackend) name() string { return "warehouse" }

func (b *warehouseBackend) prepare(statement string, params []any) (string, []any, error) {
	stmt, err := rewritePlaceholders(statement, styleQuestion, len(params))
	if err != nil {
		return "", nil, err
	}
	return stmt, params, nil
}

// connect opens one physical session through the breaker. It is the pool
// factory; with pooling disabled it is called once per operation.
func (b *warehouseBackend) connect(ctx context.Context) (*warehouseConn, error) {
	if b.breaker == nil {
		return b.dial(ctx)
	}

	conn, err := b.breaker.Execute(func() (*warehouseConn, error) {
		return b.dial(ctx)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		return conn, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		return nil, fmt.Errorf("warehouse connects suspended: %w", err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		return nil, err
	}
}

func (b *warehouseBackend) dial(ctx context.Context) (*warehouseConn, error) {
	if b.loginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.loginTimeout)
		defer cancel()
	}
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse session: %w", err)
	}
	return &warehouseConn{conn: conn}, nil
}

func (b *warehouseBackend) acquire(ctx context.Context, timeout time.Duration) (session, error) {
	if b.pool == nil {
		conn, err := b.connect(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	start := time.Now()
	conn, err := b.pool.Acquire(ctx, timeout)

	var event string
	switch {
	case errors.Is(err, pool.ErrTimeout):
		event = "timeout"
	case errors.Is(err, pool.ErrConnectFailed):
		event = "connect_failed"
	}
	metrics.RecordPoolAcquire(time.Since(start), event)
	b.publishPoolState()

	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (b *warehouseBackend) release(s session, broken bool) {
	conn, ok := s.(*warehouseConn)
	if !ok {
		return
	}
	if broken {
		conn.broken = true
		metrics.SQLPoolEvents.WithLabelValues("broken").Inc()
	}

	if b.pool == nil {
		if err := conn.Close(); err != nil {
			logging.Debug().Err(err).Msg("Failed to close warehouse session")
		}
		return
	}
	b.pool.Release(conn, broken)
	b.publishPoolState()
}

func (b *warehouseBackend) publishPoolState() {
	s := b.pool.Stats()
	metrics.RecordPoolState(s.Idle, s.InUse, s.Waiting)
}

func (b *warehouseBackend) poolStats() (pool.Stats, bool) {
	if b.pool == nil {
		return pool.Stats{}, false
	}
	return b.pool.Stats(), true
}

func (b *warehouseBackend) evictIdle() int {
	if b.pool == nil {
		return 0
	}
	n := b.pool.EvictIdle()
	if n > 0 {
		b.publishPoolState()
	}
	return n
}

func (b *warehouseBackend) close() error {
	var errs []error
	if b.pool != nil {
		if err := b.pool.Close(); err != nil {
			errs = append(errs, err)
		}
		b.publishPoolState()
	}
	if err := b.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
