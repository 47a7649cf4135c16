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
	"io"
	"strings"
)

// BrokenConnPredicate decides whether an error raised while a connection was
// checked out means the connection must be discarded.
type BrokenConnPredicate func(err error) bool

// connectionErrorMarkers are matched case-insensitively against error text.
var connectionErrorMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"session expired",
	"session has expired",
	"session no longer exists",
	"session not found",
	"authentication token has expired",
	"timeout",
	"timed out",
	"network",
	"eof",
	"closed",
	"i/o",
}

// IsConnectionError is the default BrokenConnPredicate.
//
// It is a best-effort heuristic: driver sentinels are checked first, then the
// error text is searched for connection, session, timeout and network
// signals. False positives only cost a reconnect; false negatives return a
// dead session to the pool, where the next caller's failure discards it.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range connectionErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
