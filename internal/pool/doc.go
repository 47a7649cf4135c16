// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package pool provides a bounded, goroutine-safe pool of reusable connections.

The pool owns every connection it hands out until the caller releases it. At
most MaxSize physical connections exist at any time, counting both idle and
checked-out ones. Connections are reused last-in first-out so the most recently
used (warmest) connection is handed out first, and stale idle connections are
evicted opportunistically while acquiring.

# Usage

	p, err := pool.New(func(ctx context.Context) (*sql.Conn, error) {
	    return db.Conn(ctx)
	}, pool.Options{MaxSize: 5, IdleTTL: 5 * time.Minute})
	if err != nil {
	    return err
	}
	defer p.Close()

	conn, err := p.Acquire(ctx, 30*time.Second)
	if err != nil {
	    return err // ErrTimeout, ErrClosed or *ConnectError
	}
	broken := false
	defer func() { p.Release(conn, broken) }()

# Blocking

When the pool is full, Acquire waits for a release. The deadline is computed
once on entry, so a waiter that wakes up and loses the race for the freed slot
keeps waiting only for the time it has left. A release wakes exactly one
waiter; Close wakes all of them.

Physical connects and closes always happen outside the pool lock. A slot is
reserved before connecting and given back if the connect fails.
*/
package pool
