// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package config loads and validates Vendorbase configuration.

# Sources

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml or
    /etc/vendorbase/config.yaml
 3. Environment variables, mapped explicitly in envTransformFunc

Unmapped environment variables are ignored.

# Data Access

	ENVIRONMENT                production enables the SQL statement policy
	USE_LOCAL_DB               true selects the embedded database backend
	LOCAL_DB_DRIVER            sqlite (default) or duckdb
	LOCAL_DB_PATH              database file for local mode
	WAREHOUSE_HOSTNAME         <account>.snowflakecomputing.com
	WAREHOUSE_HTTP_PATH        /<database>/<schema>
	WAREHOUSE_ACCESS_TOKEN     static OAuth bearer token
	WAREHOUSE_CLIENT_ID        OAuth client credentials (with _SECRET)
	WAREHOUSE_HOST_TOKEN_PATH  host-managed token file
	SQL_POOL_MAX_SIZE          pooled warehouse connections (default 5)
	SQL_POOL_ACQUIRE_TIMEOUT   wait for a free connection (default 30s)
	SQL_CACHE_TTL              read cache TTL (default 5m)
	SLOW_QUERY_MS              slow call threshold (default 500)

# Validation

Validate runs struct tag rules through internal/validation and then the
cross-field rules (auth method, http path shape, local path). Messages name
the environment variable an operator has to change.

# Secrets

Access tokens and client secrets are never logged; LogSummary prints which
auth method is configured, not the credential.
*/
package config
