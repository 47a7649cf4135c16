// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

// Package logging provides the process-wide zerolog logger for Vendorbase.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main
//   - JSON output for production, console output for development
//   - Request and correlation IDs carried in context.Context
//   - An slog.Handler backed by zerolog for libraries that want *slog.Logger
//   - Redaction helpers for credentials that must never reach a log line
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("backend", "warehouse").Msg("SQL client ready")
//	logging.Ctx(ctx).Warn().Float64("elapsed_ms", ms).Msg("Slow query")
//
// # Configuration
//
// Environment Variables (read through internal/config):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file and line (default: false)
//
// Always terminate an event with Msg or Send, otherwise nothing is written.
package logging
