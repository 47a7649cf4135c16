// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/vendorbase/internal/metrics"
)

// ErrViolation matches every *Violation.
var ErrViolation = errors.New("sql policy violation")

// DefaultAllowedWrites are the write verbs permitted when none are configured.
var DefaultAllowedWrites = []string{"INSERT", "UPDATE", "DELETE", "MERGE"}

var ddlVerbs = map[string]bool{
	"CREATE":   true,
	"ALTER":    true,
	"DROP":     true,
	"TRUNCATE": true,
}

// knownVerbs bounds the metrics label set.
var knownVerbs = map[string]bool{
	"SELECT": true, "WITH": true, "INSERT": true, "UPDATE": true,
	"DELETE": true, "MERGE": true, "GRANT": true, "REVOKE": true,
	"CALL": true, "COPY": true, "USE": true, "SET": true,
}

// Violation describes a rejected statement.
type Violation struct {
	Verb   string
	Reason string
}

func (v *Violation) Error() string {
	return "sql policy violation: " + v.Reason
}

// Is reports ErrViolation as a match.
func (v *Violation) Is(target error) bool {
	return target == ErrViolation
}

// Config configures an Enforcer.
type Config struct {
	// Environment is the deployment name. Only "production" and "prod"
	// (case-insensitive) are strict.
	Environment string

	// Enforce turns checking on. When false Check always passes.
	Enforce bool

	// LocalMode marks the embedded database backend, which is never checked.
	LocalMode bool

	// AllowedWrites lists verbs accepted for write calls.
	// Default: DefaultAllowedWrites
	AllowedWrites []string
}

// Enforcer checks statements against the environment policy.
// It is immutable after construction and safe for concurrent use.
type Enforcer struct {
	active        bool
	allowedWrites map[string]bool
	allowedList   string
}

// NewEnforcer builds an enforcer from cfg.
func NewEnforcer(cfg Config) *Enforcer {
	verbs := cfg.AllowedWrites
	if len(verbs) == 0 {
		verbs = DefaultAllowedWrites
	}

	allowed := make(map[string]bool, len(verbs))
	names := make([]string, 0, len(verbs))
	for _, v := range verbs {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || allowed[v] {
			continue
		}
		allowed[v] = true
		names = append(names, v)
	}
	sort.Strings(names)

	return &Enforcer{
		active:        cfg.Enforce && !cfg.LocalMode && IsStrictEnvironment(cfg.Environment),
		allowedWrites: allowed,
		allowedList:   strings.Join(names, ", "),
	}
}

// IsStrictEnvironment reports whether env names production.
func IsStrictEnvironment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return true
	}
	return false
}

// Active reports whether Check does anything.
func (e *Enforcer) Active() bool {
	return e.active
}

// Check returns a *Violation if statement may not run. isQuery marks a read call.
func (e *Enforcer) Check(statement string, isQuery bool) error {
	if !e.active {
		return nil
	}

	verb := LeadingKeyword(statement)
	switch {
	case verb == "":
		return e.reject(verb, "statement is empty or has no SQL keyword")
	case ddlVerbs[verb]:
		return e.reject(verb, fmt.Sprintf("%s statements are not permitted in production", verb))
	case isQuery:
		if verb != "SELECT" && verb != "WITH" {
			return e.reject(verb, fmt.Sprintf("read calls must start with SELECT or WITH, got %s", verb))
		}
	default:
		if !e.allowedWrites[verb] {
			return e.reject(verb, fmt.Sprintf("write verb %s is not allowed; allowed write verbs: %s", verb, e.allowedList))
		}
	}
	return nil
}

func (e *Enforcer) reject(verb, reason string) error {
	label := "other"
	switch {
	case verb == "":
		label = "none"
	case ddlVerbs[verb], knownVerbs[verb], e.allowedWrites[verb]:
		label = verb
	}
	metrics.SQLPolicyRejections.WithLabelValues(label).Inc()
	return &Violation{Verb: verb, Reason: reason}
}
