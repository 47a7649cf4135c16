// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vendorbase/internal/database"
	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/middleware"
)

// healthTimeout bounds the connectivity probe behind /healthz.
const healthTimeout = 5 * time.Second

// sqlClient is the part of *database.Client the HTTP surface uses.
type sqlClient interface {
	Ping(ctx context.Context) error
	Stats() database.Stats
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

// newRouter builds the HTTP surface.
//
//	GET /healthz          connectivity through the SQL client
//	GET /metrics          Prometheus
//	GET /debug/sqlperf    per-request SQL telemetry
//	GET /debug/sqlclient  pool, cache and policy state
func newRouter(client sqlClient, telemetry *middleware.SQLTelemetry, debugRateLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(telemetry.Middleware)
	r.Use(middleware.PrometheusMetrics)

	r.Get("/healthz", healthHandler(client))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/debug", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(debugRateLimit, time.Minute))
		r.Use(middleware.Gzip)
		r.Get("/sqlperf", telemetry.Handler())
		r.Get("/sqlclient", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, http.StatusOK, client.Stats())
		})
	})
	return r
}

func healthHandler(client sqlClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Backend: client.Stats().Backend}
		status := http.StatusOK
		if err := client.Ping(ctx); err != nil {
			// database errors carry no statement text or credentials.
			resp.Status = "unavailable"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check failed")
		}
		writeJSON(w, r, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}
