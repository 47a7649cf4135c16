// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package logging

import (
	"strings"
)

// RedactSecret masks a credential, keeping only enough to tell two apart.
// Example: "ver1.abcdefghijklmnop" -> "ver1...mnop"
func RedactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 12 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// secretMarkers flag error text that may echo a credential back.
var secretMarkers = []string{
	"password",
	"secret",
	"token",
	"bearer",
	"authorization",
	"client_secret",
	"private_key",
}

// RedactError returns msg unless it looks like it carries a credential,
// in which case a generic message is returned. Long messages are truncated.
func RedactError(msg string) string {
	lower := strings.ToLower(msg)
	for _, marker := range secretMarkers {
		if strings.Contains(lower, marker) {
			return "authentication error (details redacted)"
		}
	}
	if len(msg) > 300 {
		return msg[:300] + "..."
	}
	return msg
}
