// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/vendorbase/internal/config"
	"github.com/tomtom215/vendorbase/internal/database"
	"github.com/tomtom215/vendorbase/internal/logging"
	"github.com/tomtom215/vendorbase/internal/metrics"
	"github.com/tomtom215/vendorbase/internal/middleware"
	"github.com/tomtom215/vendorbase/internal/supervisor"
	"github.com/tomtom215/vendorbase/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// maintenanceInterval is how often expired cache entries and idle warehouse
// sessions are swept between requests.
const maintenanceInterval = time.Minute

func main() {
	// Config errors go to the default logger; config is not available yet.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logEvent := logging.Info().
		Str("version", version).
		Str("environment", cfg.Environment).
		Bool("local_db", cfg.LocalMode()).
		Bool("pool_enabled", cfg.Pool.Enabled).
		Bool("cache_enabled", cfg.Cache.Enabled)
	if cfg.LocalMode() {
		logEvent = logEvent.Str("local_driver", cfg.Local.Driver).Str("local_path", cfg.Local.Path)
	} else {
		logEvent = logEvent.Str("warehouse_host", cfg.Warehouse.Hostname).Str("auth_method", cfg.Warehouse.AuthMethod())
	}
	logEvent.Msg("Starting Vendorbase")

	client, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize SQL client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing SQL client")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog needs slog; the adapter feeds it into zerolog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	telemetry := middleware.NewSQLTelemetry(cfg.Trace.SlowQueryMS, middleware.DefaultRecentRequests)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           newRouter(client, telemetry, cfg.Server.DebugRateLimit),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddDataService(services.NewMaintenanceService(client, maintenanceInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// ServeBackground sends exactly one result and never closes the channel.
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Vendorbase stopped")
}
