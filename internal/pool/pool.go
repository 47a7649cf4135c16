// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package pool

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tomtom215/vendorbase/internal/logging"
)

var (
	// ErrTimeout is returned when no connection became available before the deadline.
	ErrTimeout = errors.New("pool: timed out waiting for a connection")

	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("pool: closed")

	// ErrConnectFailed matches any *ConnectError through errors.Is.
	ErrConnectFailed = errors.New("pool: connect failed")
)

// ConnectError wraps a factory failure. The reserved slot has already been
// returned to the pool when this error is seen.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("pool: connect failed: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Is reports ErrConnectFailed as a match.
func (e *ConnectError) Is(target error) bool {
	return target == ErrConnectFailed
}

// Factory opens one physical connection.
type Factory[C io.Closer] func(ctx context.Context) (C, error)

// Options configures a Pool.
type Options struct {
	// MaxSize is the hard cap on physical connections (idle + in use). Must be > 0.
	MaxSize int

	// IdleTTL is how long a connection may sit idle before it is evicted.
	// Entries idle strictly longer than IdleTTL are closed during Acquire.
	// A negative value disables eviction.
	IdleTTL time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Stats is a point-in-time snapshot of pool state.
type Stats struct {
	MaxSize  int
	Total    int
	Idle     int
	InUse    int
	Waiting  int
	Opened   uint64
	Evicted  uint64
	Broken   uint64
	Timeouts uint64
}

type idleConn[C io.Closer] struct {
	conn       C
	releasedAt time.Time
}

// Pool is a bounded pool of connections of type C.
type Pool[C io.Closer] struct {
	factory Factory[C]
	maxSize int
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	idle    []idleConn[C] // oldest release first; handed out from the tail
	total   int
	waiters *list.List // of chan struct{}
	closed  bool

	opened   uint64
	evicted  uint64
	broken   uint64
	timeouts uint64
}

// New creates a pool. No connection is opened until the first Acquire.
func New[C io.Closer](factory Factory[C], opts Options) (*Pool[C], error) {
	if factory == nil {
		return nil, errors.New("pool: factory is required")
	}
	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("pool: max size must be positive, got %d", opts.MaxSize)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pool[C]{
		factory: factory,
		maxSize: opts.MaxSize,
		idleTTL: opts.IdleTTL,
		now:     now,
		waiters: list.New(),
	}, nil
}

// Acquire returns an idle connection, opens a new one while below MaxSize, or
// waits up to timeout for a release. A timeout of zero or less never waits.
// Cancelling ctx ends the wait with an error wrapping both ErrTimeout and ctx.Err().
func (p *Pool[C]) Acquire(ctx context.Context, timeout time.Duration) (C, error) {
	var zero C
	deadline := p.now().Add(timeout)

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return zero, ErrClosed
		}

		stale := p.evictIdleLocked()

		if n := len(p.idle); n > 0 {
			ic := p.idle[n-1]
			p.idle[n-1] = idleConn[C]{}
			p.idle = p.idle[:n-1]
			p.mu.Unlock()
			closeStale(stale)
			return ic.conn, nil
		}

		if p.total < p.maxSize {
			p.total++
			p.mu.Unlock()
			closeStale(stale)
			return p.open(ctx)
		}

		remaining := deadline.Sub(p.now())
		if timeout <= 0 || remaining <= 0 {
			p.timeouts++
			p.mu.Unlock()
			closeStale(stale)
			return zero, ErrTimeout
		}

		ready := make(chan struct{}, 1)
		elem := p.waiters.PushBack(ready)
		p.mu.Unlock()
		closeStale(stale)

		timer := time.NewTimer(remaining)
		select {
		case <-ready:
			timer.Stop()
			continue
		case <-timer.C:
			p.abandonWait(elem, ready)
			return zero, ErrTimeout
		case <-ctx.Done():
			timer.Stop()
			p.abandonWait(elem, ready)
			return zero, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
	}
}

// open runs the factory for a slot that has already been reserved.
func (p *Pool[C]) open(ctx context.Context) (C, error) {
	conn, err := p.factory(ctx)
	if err != nil {
		var zero C
		p.mu.Lock()
		p.total--
		p.signalLocked()
		p.mu.Unlock()
		return zero, &ConnectError{Err: err}
	}

	p.mu.Lock()
	p.opened++
	p.mu.Unlock()
	return conn, nil
}

// abandonWait removes a timed-out waiter. A wakeup that raced with the
// timeout is handed to the next waiter so it is not lost.
func (p *Pool[C]) abandonWait(elem *list.Element, ready chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeouts++
	p.waiters.Remove(elem)
	select {
	case <-ready:
		p.signalLocked()
	default:
	}
}

// Release returns a connection to the pool. Broken connections, and any
// connection released after Close, are closed and free their slot.
func (p *Pool[C]) Release(conn C, broken bool) {
	p.mu.Lock()
	if broken || p.closed {
		p.total--
		if broken {
			p.broken++
		}
		p.signalLocked()
		p.mu.Unlock()
		closeConn(conn, "released")
		return
	}

	p.idle = append(p.idle, idleConn[C]{conn: conn, releasedAt: p.now()})
	p.signalLocked()
	p.mu.Unlock()
}

// Close closes every idle connection and wakes all waiters, which then fail
// with ErrClosed. Checked-out connections are closed when released.
// Close is idempotent.
func (p *Pool[C]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.total -= len(idle)
	for e := p.waiters.Front(); e != nil; e = e.Next() {
		wake(e.Value.(chan struct{}))
	}
	p.waiters.Init()
	p.mu.Unlock()

	var errs []error
	for _, ic := range idle {
		if err := ic.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[C]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		MaxSize:  p.maxSize,
		Total:    p.total,
		Idle:     len(p.idle),
		InUse:    p.total - len(p.idle),
		Waiting:  p.waiters.Len(),
		Opened:   p.opened,
		Evicted:  p.evicted,
		Broken:   p.broken,
		Timeouts: p.timeouts,
	}
}

// EvictIdle closes idle connections that outlived IdleTTL without waiting
// for the next Acquire. It returns how many were closed.
func (p *Pool[C]) EvictIdle() int {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0
	}
	stale := p.evictIdleLocked()
	p.mu.Unlock()

	closeStale(stale)
	return len(stale)
}

// evictIdleLocked detaches idle entries older than idleTTL and gives their
// slots back. The caller closes the returned connections after unlocking.
func (p *Pool[C]) evictIdleLocked() []C {
	if p.idleTTL < 0 || len(p.idle) == 0 {
		return nil
	}
	now := p.now()
	cut := 0
	for cut < len(p.idle) && now.Sub(p.idle[cut].releasedAt) > p.idleTTL {
		cut++
	}
	if cut == 0 {
		return nil
	}

	stale := make([]C, cut)
	for i := 0; i < cut; i++ {
		stale[i] = p.idle[i].conn
	}
	p.idle = append(p.idle[:0], p.idle[cut:]...)
	p.total -= cut
	p.evicted += uint64(cut)
	return stale
}

// signalLocked wakes the longest-waiting acquirer, if any.
func (p *Pool[C]) signalLocked() {
	if front := p.waiters.Front(); front != nil {
		p.waiters.Remove(front)
		wake(front.Value.(chan struct{}))
	}
}

func wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func closeStale[C io.Closer](conns []C) {
	for _, c := range conns {
		closeConn(c, "idle-expired")
	}
}

func closeConn[C io.Closer](conn C, reason string) {
	if err := conn.Close(); err != nil {
		logging.Debug().Err(err).Str("component", "pool").Str("reason", reason).Msg("Failed to close pooled connection")
	}
}
