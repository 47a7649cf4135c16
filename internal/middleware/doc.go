// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package middleware provides the HTTP middleware around every request.

Key Components:

  - RequestID: reuses or generates an X-Request-ID and puts it, plus a
    correlation id, into the request context for logging.
  - SQLTelemetry: opens a per-request SQL telemetry scope (internal/perf) so
    every SQL client call made while serving the request is counted. When the
    request ends a summary is logged and kept for /debug/sqlperf.
  - PrometheusMetrics: request count, latency and in-flight gauge.
  - Gzip: compresses responses for clients that accept it.

Middleware Stack:

All middleware has the func(http.Handler) http.Handler shape used by chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(telemetry.Middleware)
	r.Use(middleware.PrometheusMetrics)

RequestID must run first: SQLTelemetry labels its scope with the request id.

Endpoint labels come from the matched chi route pattern, so metric
cardinality stays bounded for paths with ids in them.
*/
package middleware
