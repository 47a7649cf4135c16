// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/vendorbase/internal/policy"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vendorbase/config.yaml",
	"/etc/vendorbase/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. File and environment layers
// override these.
func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Warehouse: WarehouseConfig{
			HostTokenPath: "/snowflake/session/token",
			LoginTimeout:  60 * time.Second,
			Scopes:        []string{},
		},
		Local: LocalConfig{
			Enabled:         false,
			Driver:          "sqlite",
			Path:            "data/vendorbase.db",
			StripQualifiers: []string{},
		},
		Pool: PoolConfig{
			Enabled:        true,
			MaxSize:        5,
			AcquireTimeout: 30 * time.Second,
			IdleTTL:        5 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 256,
		},
		Trace: TraceConfig{
			Enabled:          false,
			MaxPreviewLength: 200,
			SlowQueryMS:      500,
		},
		Policy: PolicyConfig{
			Enforce:           true,
			AllowedWriteVerbs: append([]string(nil), policy.DefaultAllowedWrites...),
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			MaxRequests:      1,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			DebugRateLimit:  60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// WAREHOUSE_HOSTNAME -> warehouse.hostname, SQL_POOL_MAX_SIZE -> pool.max_size
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated environment values.
var sliceConfigPaths = []string{
	"warehouse.scopes",
	"local.strip_qualifiers",
	"policy.allowed_write_verbs",
}

// processSliceFields splits comma-separated strings for known slice paths.
// Values that already are slices (from YAML) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to config paths.
var envMappings = map[string]string{
	"environment": "environment",

	// Warehouse
	"warehouse_hostname":        "warehouse.hostname",
	"warehouse_http_path":       "warehouse.http_path",
	"warehouse_name":            "warehouse.warehouse",
	"warehouse_role":            "warehouse.role",
	"warehouse_user":            "warehouse.user",
	"warehouse_access_token":    "warehouse.access_token",
	"warehouse_client_id":       "warehouse.client_id",
	"warehouse_client_secret":   "warehouse.client_secret",
	"warehouse_token_url":       "warehouse.token_url",
	"warehouse_scopes":          "warehouse.scopes",
	"warehouse_host_token_path": "warehouse.host_token_path",
	"warehouse_login_timeout":   "warehouse.login_timeout",

	// Local database
	"use_local_db":              "local.enabled",
	"local_db_driver":           "local.driver",
	"local_db_path":             "local.path",
	"local_db_strip_qualifiers": "local.strip_qualifiers",

	// Pool
	"sql_pool_enabled":         "pool.enabled",
	"sql_pool_max_size":        "pool.max_size",
	"sql_pool_acquire_timeout": "pool.acquire_timeout",
	"sql_pool_idle_ttl":        "pool.idle_ttl",

	// Cache
	"sql_cache_enabled":     "cache.enabled",
	"sql_cache_ttl":         "cache.ttl",
	"sql_cache_max_entries": "cache.max_entries",

	// Telemetry
	"sql_trace_enabled":     "trace.enabled",
	"sql_trace_max_preview": "trace.max_preview_length",
	"slow_query_ms":         "trace.slow_query_ms",

	// Policy
	"enforce_sql_policy":      "policy.enforce",
	"sql_allowed_write_verbs": "policy.allowed_write_verbs",

	// Circuit breaker
	"warehouse_breaker_enabled":           "breaker.enabled",
	"warehouse_breaker_failure_threshold": "breaker.failure_threshold",
	"warehouse_breaker_timeout":           "breaker.timeout",
	"warehouse_breaker_max_requests":      "breaker.max_requests",
	"warehouse_breaker_failures":          "breaker.failure_threshold", // deprecated spelling
	"warehouse_breaker_half_open":         "breaker.max_requests",      // deprecated spelling

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_debug_rate_limit": "server.debug_rate_limit",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a config path.
// Unmapped names return "" and are skipped so unrelated variables never
// leak into configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
