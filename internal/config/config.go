// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package config

import (
	"strings"
	"time"
)

// Auth methods for the remote warehouse, in priority order.
const (
	AuthStaticToken       = "static_token"
	AuthClientCredentials = "client_credentials"
	AuthHostToken         = "host_token"
)

// Config holds all application configuration.
type Config struct {
	// Environment is the deployment name (development, staging, production).
	// The SQL statement policy only applies in production.
	Environment string `koanf:"environment" validate:"required"`

	Warehouse WarehouseConfig `koanf:"warehouse"`
	Local     LocalConfig     `koanf:"local"`
	Pool      PoolConfig      `koanf:"pool"`
	Cache     CacheConfig     `koanf:"cache"`
	Trace     TraceConfig     `koanf:"trace"`
	Policy    PolicyConfig    `koanf:"policy"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// WarehouseConfig describes the remote Snowflake warehouse.
type WarehouseConfig struct {
	// Hostname is the account host, e.g. acme-xy123.snowflakecomputing.com.
	Hostname string `koanf:"hostname"`

	// HTTPPath selects the database and schema as /<database>/<schema>.
	HTTPPath string `koanf:"http_path"`

	// Warehouse is the compute warehouse name. Optional.
	Warehouse string `koanf:"warehouse"`

	// Role is the session role. Optional.
	Role string `koanf:"role"`

	// User is the login name sent with OAuth tokens. Optional for most accounts.
	User string `koanf:"user"`

	// AccessToken is a static OAuth bearer token. Highest auth priority.
	AccessToken string `koanf:"access_token"`

	// ClientID and ClientSecret select the OAuth client credentials flow.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// TokenURL is the OAuth token endpoint.
	// Default: https://<hostname>/oauth/token-request
	TokenURL string `koanf:"token_url"`

	// Scopes requested with client credentials.
	Scopes []string `koanf:"scopes"`

	// HostTokenPath is where the hosting platform writes a session token.
	// Used when neither a static token nor client credentials are set.
	HostTokenPath string `koanf:"host_token_path"`

	// LoginTimeout bounds session establishment.
	LoginTimeout time.Duration `koanf:"login_timeout" validate:"gte=0"`
}

// Database returns the first segment of HTTPPath.
func (w WarehouseConfig) Database() string {
	db, _ := w.pathSegments()
	return db
}

// Schema returns the second segment of HTTPPath.
func (w WarehouseConfig) Schema() string {
	_, schema := w.pathSegments()
	return schema
}

func (w WarehouseConfig) pathSegments() (string, string) {
	parts := strings.Split(strings.Trim(w.HTTPPath, "/"), "/")
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}

// AuthMethod reports which credential source will be used.
func (w WarehouseConfig) AuthMethod() string {
	switch {
	case w.AccessToken != "":
		return AuthStaticToken
	case w.ClientID != "" && w.ClientSecret != "":
		return AuthClientCredentials
	case w.HostTokenPath != "":
		return AuthHostToken
	default:
		return ""
	}
}

// EffectiveTokenURL returns TokenURL or the account default.
func (w WarehouseConfig) EffectiveTokenURL() string {
	if w.TokenURL != "" {
		return w.TokenURL
	}
	return "https://" + w.Hostname + "/oauth/token-request"
}

// LocalConfig describes the embedded database used for development and tests.
type LocalConfig struct {
	// Enabled switches the client to the embedded database.
	Enabled bool `koanf:"enabled"`

	// Driver is sqlite or duckdb.
	Driver string `koanf:"driver" validate:"oneof=sqlite duckdb"`

	// Path is the database file.
	Path string `koanf:"path"`

	// StripQualifiers are schema prefixes removed from statements, e.g.
	// "procurement.core." so warehouse SQL runs unchanged against one file.
	// Default: derived from warehouse.http_path.
	StripQualifiers []string `koanf:"strip_qualifiers"`
}

// PoolConfig configures warehouse connection pooling.
type PoolConfig struct {
	// Enabled keeps warehouse sessions open between calls.
	Enabled bool `koanf:"enabled"`

	// MaxSize caps open warehouse sessions.
	MaxSize int `koanf:"max_size" validate:"min=1,max=256"`

	// AcquireTimeout bounds the wait for a free session. Zero never waits.
	AcquireTimeout time.Duration `koanf:"acquire_timeout" validate:"gte=0"`

	// IdleTTL closes sessions idle longer than this. Negative disables.
	IdleTTL time.Duration `koanf:"idle_ttl"`
}

// CacheConfig configures the read result cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
	MaxEntries int           `koanf:"max_entries" validate:"min=1"`
}

// TraceConfig configures SQL telemetry.
type TraceConfig struct {
	// Enabled logs every SQL call, not only slow or failed ones.
	Enabled bool `koanf:"enabled"`

	// MaxPreviewLength bounds statement previews in logs.
	MaxPreviewLength int `koanf:"max_preview_length" validate:"min=16,max=10000"`

	// SlowQueryMS marks calls at or above this many milliseconds as slow.
	SlowQueryMS int `koanf:"slow_query_ms" validate:"gte=0"`
}

// PolicyConfig configures the production statement policy.
type PolicyConfig struct {
	Enforce           bool     `koanf:"enforce"`
	AllowedWriteVerbs []string `koanf:"allowed_write_verbs" validate:"dive,sqlverb"`
}

// BreakerConfig configures the circuit breaker around warehouse connects.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// FailureThreshold consecutive connect failures open the breaker.
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"min=1"`

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// MaxRequests allowed through while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"min=1"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// DebugRateLimit is requests per minute per client IP on /debug routes.
	// Zero disables the limit.
	DebugRateLimit int `koanf:"debug_rate_limit" validate:"gte=0"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// LocalMode reports whether the embedded database backend is selected.
func (c *Config) LocalMode() bool {
	return c.Local.Enabled
}

// QualifiersToStrip returns the schema prefixes removed in local mode.
func (c *Config) QualifiersToStrip() []string {
	if len(c.Local.StripQualifiers) > 0 {
		return c.Local.StripQualifiers
	}
	db, schema := c.Warehouse.pathSegments()
	var out []string
	if db != "" && schema != "" {
		out = append(out, db+"."+schema+".")
	}
	if schema != "" {
		out = append(out, schema+".")
	}
	return out
}

// Load loads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
