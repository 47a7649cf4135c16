// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package cache provides bounded in-memory caching with TTL support.

# Overview

The package provides two layers:
  - LRU: a generic, thread-safe least-recently-used map with lazy TTL expiry
  - ResultCache: the SQL read-result cache built on LRU, which stores and
    returns deep copies so callers can never corrupt a cached entry

# Keys

Result cache keys are derived from the statement text with whitespace
collapsed plus the bound parameters encoded as JSON, hashed with SHA-256:

	key, err := cache.Key("SELECT * FROM vendors WHERE id = ?", []any{42})

Identical (statement, params) tuples always produce identical keys. Parameters
that cannot be encoded return an error and the caller skips caching.

# Expiry and Eviction

TTL is checked only when an entry is read; an expired entry counts as a miss
and is removed. Inserting beyond capacity evicts the least recently used
entry. There is no per-table invalidation: writers call Clear.

# Disabled Mode

A ResultCache built with Enabled=false always misses on Get, and Set and
Clear are no-ops, so call sites do not change when caching is turned off.

# Metrics

ResultCache reports cache_hits_total, cache_misses_total, cache_entries and
cache_evictions_total labelled with its cache_type name.
*/
package cache
