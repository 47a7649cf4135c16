// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package perf

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/vendorbase/internal/cache"
)

// DefaultPreviewLength is used when no preview length is configured.
const DefaultPreviewLength = 200

const hashLength = 12

const previewEllipsis = "..."

// StatementHash returns a short deterministic digest of the normalized statement.
func StatementHash(statement string) string {
	sum := sha256.Sum256([]byte(cache.NormalizeStatement(statement)))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// StatementPreview collapses whitespace and truncates to at most maxLen
// runes. A truncated preview ends in "...", which counts toward maxLen.
func StatementPreview(statement string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultPreviewLength
	}
	collapsed := strings.Join(strings.Fields(statement), " ")
	if utf8.RuneCountInString(collapsed) <= maxLen {
		return collapsed
	}
	runes := []rune(collapsed)
	if maxLen <= len(previewEllipsis) {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-len(previewEllipsis)]) + previewEllipsis
}
