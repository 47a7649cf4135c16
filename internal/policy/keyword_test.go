// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package policy

import "testing"

func TestLeadingKeyword(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		want      string
	}{
		{"simple select", "SELECT * FROM vendors", "SELECT"},
		{"lowercase", "select 1", "SELECT"},
		{"leading whitespace", "\n\n   update vendors set x = 1", "UPDATE"},
		{"line comments", "-- fetch vendors\n-- second line\nSELECT 1", "SELECT"},
		{"block comment", "/* audit */ DELETE FROM contracts", "DELETE"},
		{"multi-line block comment", "/*\n DROP TABLE x;\n*/\nWITH cte AS (SELECT 1) SELECT * FROM cte", "WITH"},
		{"block comment hides verb", "/* SELECT */ DROP TABLE vendors", "DROP"},
		{"trailing semicolon", "COMMIT;", "COMMIT"},
		{"parenthesised", "(SELECT 1) UNION (SELECT 2)", "SELECT"},
		{"verb glued to paren", "INSERT(a) VALUES (1)", "INSERT"},
		{"empty", "", ""},
		{"only whitespace", "  \n\t ", ""},
		{"only comments", "-- nothing\n/* here */", ""},
		{"unterminated block comment", "/* SELECT 1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LeadingKeyword(tt.statement); got != tt.want {
				t.Errorf("LeadingKeyword(%q) = %q, want %q", tt.statement, got, tt.want)
			}
		})
	}
}

func TestIsRead(t *testing.T) {
	if !IsRead("with x as (select 1) select * from x") {
		t.Error("Expected WITH to be a read")
	}
	if !IsRead("-- c\nSELECT 1") {
		t.Error("Expected SELECT to be a read")
	}
	if IsRead("INSERT INTO t VALUES (1)") {
		t.Error("Expected INSERT not to be a read")
	}
}
