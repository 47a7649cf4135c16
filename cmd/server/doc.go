// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package main is the entry point for the Vendorbase data service.

The server owns one SQL client (internal/database) and exposes its health and
telemetry over HTTP. Business handlers mount on the same router and reach the
warehouse, or the local database in development, through that client.

# Application Architecture

	RootSupervisor ("vendorbase")
	├── DataSupervisor ("data-layer")
	│   └── SQL maintenance (cache expiry, idle session eviction)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Initialization order:

 1. Configuration: Koanf v2, defaults < config.yaml < environment
 2. Logging: zerolog, JSON or console
 3. SQL client: warehouse (Snowflake over OAuth) or local (sqlite, duckdb)
 4. Supervisor tree: suture v4, events logged through sutureslog
 5. HTTP server: chi router

# Endpoints

	GET /healthz          pings the backend through the client
	GET /metrics          Prometheus metrics
	GET /debug/sqlperf    per-endpoint SQL stats and recent request summaries
	GET /debug/sqlclient  pool, cache and policy state

# Configuration

Local development:

	export USE_LOCAL_DB=true
	export LOCAL_DB_PATH=data/vendorbase.db
	./vendorbase

Warehouse with OAuth client credentials:

	export WAREHOUSE_HOSTNAME=acme-xy123.snowflakecomputing.com
	export WAREHOUSE_HTTP_PATH=/procurement/core
	export WAREHOUSE_NAME=ANALYTICS_WH
	export WAREHOUSE_CLIENT_ID=vendorbase
	export WAREHOUSE_CLIENT_SECRET=...
	export ENVIRONMENT=production
	./vendorbase

In production the SQL policy rejects writes outside SQL_ALLOWED_WRITE_VERBS
unless ENFORCE_SQL_POLICY=false.

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for up
to HTTP_SHUTDOWN_TIMEOUT, then the SQL client closes its sessions.
*/
package main
