// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package policy

import (
	"strings"
)

// LeadingKeyword returns the first SQL keyword of statement, uppercased.
// Block comments are removed, blank lines and lines starting with "--" are
// skipped. It returns "" when no keyword remains.
func LeadingKeyword(statement string) string {
	text := stripBlockComments(statement)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		token := strings.Fields(line)[0]
		token = strings.TrimLeft(token, "(")
		if i := strings.IndexAny(token, ";(-"); i >= 0 {
			token = token[:i]
		}
		return strings.ToUpper(token)
	}
	return ""
}

// IsRead reports whether the statement starts with SELECT or WITH.
func IsRead(statement string) bool {
	switch LeadingKeyword(statement) {
	case "SELECT", "WITH":
		return true
	}
	return false
}

// stripBlockComments removes /* ... */ comments. An unterminated comment
// swallows the rest of the statement.
func stripBlockComments(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		b.WriteByte(' ')
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			return b.String()
		}
		s = s[start+2+end+2:]
	}
}
