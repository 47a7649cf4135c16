// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package database is the SQL client every repository goes through.

A Client runs two operations:

  - Query: a read. Results of SELECT/WITH statements are cached.
  - Execute: a write. Every successful write clears the whole result cache.

Each call walks the same steps:

	PREPARE -> POLICY_CHECK -> CACHE_CHECK (reads) -> ACQUIRE -> EXECUTE
	        -> CACHE_STORE | CACHE_CLEAR -> RELEASE -> RECORD_TELEMETRY

# Backends

The backend is chosen once in New and never re-checked per call:

  - warehouse: Snowflake through gosnowflake. Sessions are held by a bounded
    pool (internal/pool) and opened behind a circuit breaker.
  - local: an embedded file database (modernc.org/sqlite or duckdb). A
    connection is opened and closed around every call and each statement runs
    in its own transaction.

# Authentication

Warehouse credentials are picked by which fields are set, in this order:

 1. a static OAuth access token
 2. OAuth client credentials (golang.org/x/oauth2/clientcredentials)
 3. a token file written by the hosting platform, re-read on every connect

Tokens never appear in errors or logs.

# Errors

Every failure is a *Error whose Kind is one of connection, query, execution or
policy. Match with errors.Is against ErrConnection, ErrQuery, ErrExecution and
ErrPolicy. The driver error is kept as the unwrap cause; Error() only carries a
stable message.

Nothing is retried. Errors raised while a connection is checked out are run
through a broken-connection predicate (IsConnectionError by default). Broken
connections are discarded, never pooled again.

# Example

	client, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	rs, err := client.Query(ctx,
		"SELECT id, name FROM procurement.core.vendors WHERE status = ?", "active")
	if err != nil {
		return err
	}
	for _, row := range rs.Maps() {
		fmt.Println(row["id"], row["name"])
	}
*/
package database
