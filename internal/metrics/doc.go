// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package metrics provides Prometheus metrics for the data-access layer.

All collectors are registered with the default registry through promauto and
exposed at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

SQL client:
  - sql_query_duration_seconds{operation,cached}
  - sql_query_errors_total{operation,error_kind}
  - sql_slow_queries_total{operation}
  - sql_rows_returned
  - sql_policy_rejections_total{verb}

Connection pool:
  - sql_pool_connections{state}
  - sql_pool_waiters
  - sql_pool_acquire_duration_seconds
  - sql_pool_events_total{event}

Caching and resilience:
  - cache_hits_total / cache_misses_total / cache_entries / cache_evictions_total
  - circuit_breaker_state / circuit_breaker_requests_total / circuit_breaker_state_transitions_total

HTTP:
  - api_requests_total / api_request_duration_seconds / api_active_requests
  - api_request_db_calls

Statement text never appears in labels. Error labels carry the error kind
(connection, query, execution, policy), not the driver message.
*/
package metrics
