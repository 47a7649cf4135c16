// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vendorbase/internal/metrics"
)

// Cloner returns an independent deep copy of v.
type Cloner[V any] func(v V) V

// ResultConfig configures a ResultCache.
type ResultConfig struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int

	// Name is the cache_type metrics label. Default: "sql_result"
	Name string

	// Now overrides the clock. Default: time.Now
	Now func() time.Time
}

// ResultCache caches read results by statement key. Values are cloned on the
// way in and on the way out.
type ResultCache[V any] struct {
	enabled bool
	name    string
	clone   Cloner[V]
	lru     *LRU[string, V]
}

// NewResultCache creates a result cache. clone must not be nil.
func NewResultCache[V any](cfg ResultConfig, clone Cloner[V]) *ResultCache[V] {
	if cfg.Name == "" {
		cfg.Name = "sql_result"
	}
	name := cfg.Name
	c := &ResultCache[V]{
		enabled: cfg.Enabled,
		name:    name,
		clone:   clone,
	}
	if cfg.Enabled {
		c.lru = NewLRU[string, V](LRUConfig{
			Capacity: cfg.MaxEntries,
			TTL:      cfg.TTL,
			Now:      cfg.Now,
			OnEvict: func(reason string) {
				metrics.CacheEvictions.WithLabelValues(name, reason).Inc()
			},
		})
	}
	return c
}

// Enabled reports whether the cache stores anything.
func (c *ResultCache[V]) Enabled() bool {
	return c.enabled
}

// Get returns a copy of the cached value for key.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	if !c.enabled {
		var zero V
		return zero, false
	}

	v, ok := c.lru.Get(key)
	if !ok {
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		metrics.CacheSize.WithLabelValues(c.name).Set(float64(c.lru.Len()))
		return v, false
	}
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return c.clone(v), true
}

// Set stores a copy of v under key.
func (c *ResultCache[V]) Set(key string, v V) {
	if !c.enabled {
		return
	}
	c.lru.Add(key, c.clone(v))
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(c.lru.Len()))
}

// Clear drops every entry.
func (c *ResultCache[V]) Clear() {
	if !c.enabled {
		return
	}
	c.lru.Clear()
	metrics.CacheSize.WithLabelValues(c.name).Set(0)
}

// CleanupExpired drops entries past their TTL and returns how many went.
func (c *ResultCache[V]) CleanupExpired() int {
	if !c.enabled {
		return 0
	}
	n := c.lru.CleanupExpired()
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(c.lru.Len()))
	return n
}

// Len returns the number of stored entries.
func (c *ResultCache[V]) Len() int {
	if !c.enabled {
		return 0
	}
	return c.lru.Len()
}

// Stats returns the underlying LRU counters. A disabled cache reports zeros.
func (c *ResultCache[V]) Stats() LRUStats {
	if !c.enabled {
		return LRUStats{}
	}
	return c.lru.Stats()
}

// NormalizeStatement trims the statement and collapses runs of whitespace
// outside quoted literals to a single space.
func NormalizeStatement(statement string) string {
	var b strings.Builder
	b.Grow(len(statement))

	var quote rune
	pendingSpace := false
	for _, r := range strings.TrimSpace(statement) {
		if quote != 0 {
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		if r == '\'' || r == '"' {
			quote = r
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Key derives a cache key from a statement and its bound parameters.
// Each parameter contributes its Go type as well as its encoded value, so
// int64(1) and float64(1), or []byte("a") and "YQ==", never share a key.
func Key(statement string, params []any) (string, error) {
	h := sha256.New()
	h.Write([]byte(NormalizeStatement(statement)))
	h.Write([]byte{0})
	for i, p := range params {
		encoded, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("failed to encode cache key param %d: %w", i, err)
		}
		fmt.Fprintf(h, "%T", p)
		h.Write([]byte{0})
		h.Write(encoded)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
