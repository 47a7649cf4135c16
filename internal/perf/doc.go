// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package perf tracks SQL activity per request.

A Request accumulator travels in the context.Context of one inbound request.
Every SQL client call made with that context adds to its counters, so
concurrent requests never share state:

	ctx, req := perf.Start(r.Context(), requestID, r.Method, r.URL.Path, 500)
	next.ServeHTTP(w, r.WithContext(ctx))
	snap := req.Stop()
	// snap.DBCalls, snap.DBTotalMS, snap.DBMaxMS, snap.DBCacheHits,
	// snap.DBErrors, snap.SlowQueries

At most MaxSlowSamples slow calls are kept per request; counters keep
counting past the cap.

# Side Channel

Recorder is the single entry point used by the SQL client. Besides updating
the request accumulator it emits a structured log line with event=sql_perf for
every slow or failed call (and for every call when tracing is on) and updates
the sql_* Prometheus metrics. Calls made outside any request scope still reach
the side channel.

Full statement text is never logged. Calls are identified by StatementHash,
a short digest of the normalized text, and StatementPreview, a whitespace
collapsed and truncated copy.
*/
package perf
