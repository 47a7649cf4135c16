// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package policy restricts which SQL verbs may run in production.

The enforcer inspects only the leading keyword of a statement. It is a guard
rail against accidental schema changes and mislabelled calls, not a SQL
parser and not a security boundary against hostile input.

# Rules

Outside production, when enforcement is disabled, or in local database mode,
every statement passes. In production:

  - CREATE, ALTER, DROP and TRUNCATE are always rejected
  - a read call must start with SELECT or WITH
  - a write call must start with an allow-listed verb
    (default INSERT, UPDATE, DELETE, MERGE)
  - an empty statement, or one that is only comments, is rejected

Rejections are returned as *Violation, matched with errors.Is(err, ErrViolation).
*/
package policy
