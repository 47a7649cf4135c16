// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/vendorbase/internal/config"
	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/pool"
)

// localConn is a database handle opened for a single operation.
type localConn struct {
	db *sql.DB
}

// query runs in its own transaction. Nothing is committed unless the rows
// were read completely.
func (c *localConn) query(ctx context.Context, statement string, args []any) (*ResultSet, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	rs, err := scanRows(rows)
	closeQuietly(rows)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (c *localConn) exec(ctx context.Context, statement string, args []any) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, statement, args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (c *localConn) ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// localBackend serves calls from an embedded database file. The engine is
// single-process and cheap to open, so nothing is pooled.
type localBackend struct {
	driver    string
	dsn       string
	style     placeholderStyle
	qualifier *qualifierStripper
}

func newLocalBackend(cfg config.LocalConfig, qualifiers []string) (*localBackend, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	b := &localBackend{qualifier: newQualifierStripper(qualifiers)}
	switch cfg.Driver {
	case "duckdb":
		b.driver = "duckdb"
		b.dsn = cfg.Path + "?access_mode=read_write"
		b.style = styleDollar
	case "sqlite", "":
		b.driver = "sqlite"
		b.dsn = cfg.Path + "?_pragma=busy_timeout(5000)"
		b.style = styleQuestion
	default:
		return nil, fmt.Errorf("unsupported local database driver %q", cfg.Driver)
	}
	return b, nil
}

func (b *localBackend) name() string { return "local" }

func (b *localBackend) prepare(statement string, params []any) (string, []any, error) {
	stmt, err := rewritePlaceholders(b.qualifier.strip(statement), b.style, len(params))
	if err != nil {
		return "", nil, err
	}
	return stmt, localParams(params), nil
}

// acquire opens the file. Open failures surface as connection errors.
func (b *localBackend) acquire(ctx context.Context, _ time.Duration) (session, error) {
	db, err := sql.Open(b.driver, b.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	return &localConn{db: db}, nil
}

// release always closes; broken has no meaning without a pool.
func (b *localBackend) release(s session, _ bool) {
	conn, ok := s.(*localConn)
	if !ok {
		return
	}
	if err := conn.db.Close(); err != nil {
		logging.Debug().Err(err).Str("driver", b.driver).Msg("Failed to close local database")
	}
}

func (b *localBackend) poolStats() (pool.Stats, bool) { return pool.Stats{}, false }

func (b *localBackend) evictIdle() int { return 0 }

func (b *localBackend) close() error { return nil }
