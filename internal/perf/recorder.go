// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package perf

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/metrics"
)

// RecorderConfig configures the side channel.
type RecorderConfig struct {
	// TraceAll logs every call, not only slow or failed ones.
	TraceAll bool

	// SlowQueryMS is the threshold for calls outside a request scope.
	SlowQueryMS int

	// MaxPreviewLength bounds statement_preview. Default: DefaultPreviewLength
	MaxPreviewLength int
}

// Recorder feeds calls to the request accumulator, logs and metrics.
type Recorder struct {
	cfg RecorderConfig
}

// NewRecorder creates a recorder.
func NewRecorder(cfg RecorderConfig) *Recorder {
	if cfg.MaxPreviewLength <= 0 {
		cfg.MaxPreviewLength = DefaultPreviewLength
	}
	return &Recorder{cfg: cfg}
}

// Record handles one finished call made with ctx.
func (r *Recorder) Record(ctx context.Context, c Call) {
	c.StatementHash = StatementHash(c.Statement)
	c.StatementPreview = StatementPreview(c.Statement, r.cfg.MaxPreviewLength)

	var slow bool
	if req := FromContext(ctx); req != nil {
		slow = req.Record(c)
	} else {
		slow = c.ElapsedMS() >= float64(r.cfg.SlowQueryMS)
	}

	metrics.RecordSQLCall(c.Operation, c.Elapsed, c.Cached, c.ErrorKind)
	if slow {
		metrics.SQLSlowQueries.WithLabelValues(c.Operation).Inc()
	}
	if c.Operation == "query" && c.ErrorKind == "" {
		metrics.SQLRowsReturned.Observe(float64(c.Rows))
	}

	if !slow && c.ErrorKind == "" && !r.cfg.TraceAll {
		return
	}

	logger := logging.Ctx(ctx)
	var event *zerolog.Event
	switch {
	case c.ErrorKind != "":
		event = logger.Warn().Str("error_kind", c.ErrorKind)
	case slow:
		event = logger.Warn()
	default:
		event = logger.Info()
	}
	event.
		Str("event", "sql_perf").
		Str("operation", c.Operation).
		Float64("elapsed_ms", c.ElapsedMS()).
		Bool("cached", c.Cached).
		Int("rows", c.Rows).
		Bool("slow", slow).
		Bool("error", c.ErrorKind != "").
		Str("statement_hash", c.StatementHash).
		Str("statement_preview", c.StatementPreview).
		Msg("SQL call")
}
