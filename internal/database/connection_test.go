// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn sentinel", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"conn done", sql.ErrConnDone, true},
		{"eof", io.EOF, true},
		{"deadline", context.DeadlineExceeded, true},
		{"connection refused", errors.New("dial tcp 10.0.0.1:443: connect: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"session has expired", errors.New("390112 (08001): Your session has expired. Please login again."), true},
		{"session expired lowercase", errors.New("session expired"), true},
		{"session gone", errors.New("Session no longer exists. New login required to access the service."), true},
		{"timeout", errors.New("net/http: request canceled (Client.Timeout exceeded)"), true},
		{"network", errors.New("network is unreachable"), true},
		{"closed", errors.New("sql: database is closed"), true},
		{"syntax error", errors.New("001003 (42000): SQL compilation error: syntax error line 1"), false},
		{"constraint", errors.New("NULL result in a non-nullable column"), false},
		{"missing object", errors.New("Object 'VENDORS' does not exist or not authorized."), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnectionError(tt.err); got != tt.want {
				t.Errorf("IsConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
