// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide (it caches struct
// metadata). Field names in messages are taken from koanf tags, so a failure
// reads "pool.max_size must be at least 1" rather than naming the Go field.
//
// Custom tags:
//   - sqlverb: a bare SQL keyword made of letters only
//
// Example:
//
//	type PoolConfig struct {
//	    MaxSize int `koanf:"max_size" validate:"min=1,max=256"`
//	}
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("invalid configuration: %w", err)
//	}
package validation
