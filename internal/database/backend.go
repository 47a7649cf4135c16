// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"time"

	"github.com/tomtom215/vendorbase/internal/pool"
)

// backend is the sealed set of data sources: warehouseBackend and
// localBackend.
type backend interface {
	// name is "warehouse" or "local".
	name() string

	// prepare rewrites a statement template and its params into the
	// backend's native form.
	prepare(statement string, params []any) (string, []any, error)

	// acquire hands out a session owned by the caller until release.
	acquire(ctx context.Context, timeout time.Duration) (session, error)

	// release returns or discards a session.
	release(s session, broken bool)

	// poolStats reports pool state; ok is false for unpooled backends.
	poolStats() (stats pool.Stats, ok bool)

	// evictIdle closes pooled connections past their idle TTL.
	evictIdle() int

	close() error
}

// session is one checked-out connection.
type session interface {
	query(ctx context.Context, statement string, args []any) (*ResultSet, error)
	exec(ctx context.Context, statement string, args []any) error
	ping(ctx context.Context) error
}
