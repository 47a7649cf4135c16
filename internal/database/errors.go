// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"errors"
	"io"
)

// Kind classifies a client failure.
type Kind string

const (
	// KindConnection: no connection could be obtained or it failed mid-call.
	KindConnection Kind = "connection"
	// KindQuery: a read failed after a connection was obtained.
	KindQuery Kind = "query"
	// KindExecution: a write failed after a connection was obtained.
	KindExecution Kind = "execution"
	// KindPolicy: the statement was rejected before any connection was touched.
	KindPolicy Kind = "policy"
)

var (
	ErrConnection = errors.New("data connection error")
	ErrQuery      = errors.New("query execution failed")
	ErrExecution  = errors.New("statement execution failed")
	ErrPolicy     = errors.New("statement rejected by sql policy")

	// ErrClientClosed is the cause of connection errors after Close.
	ErrClientClosed = errors.New("sql client is closed")
)

// Error is returned by every Client operation.
type Error struct {
	Kind Kind
	Op   string // "query", "execute" or "ping"
	Err  error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error returns a stable message. Driver text is left out because it may echo
// connection details; policy reasons are kept since they only name verbs.
func (e *Error) Error() string {
	msg := e.Op + ": " + e.sentinel().Error()
	if e.Kind == KindPolicy && e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindConnection:
		return ErrConnection
	case KindQuery:
		return ErrQuery
	case KindExecution:
		return ErrExecution
	case KindPolicy:
		return ErrPolicy
	default:
		return ErrQuery
	}
}

// KindOf returns the Kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
