// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package services

import (
	"context"
	"time"

	"github.com/tomtom215/vendorbase/internal/logging"
)

// Maintainer is satisfied by *database.Client.
type Maintainer interface {
	Maintain() (expired, evicted int)
}

// MaintenanceService calls Maintain on a fixed interval.
type MaintenanceService struct {
	target   Maintainer
	interval time.Duration
	name     string
}

// NewMaintenanceService creates the service. A non-positive interval means
// one minute.
func NewMaintenanceService(target Maintainer, interval time.Duration) *MaintenanceService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MaintenanceService{
		target:   target,
		interval: interval,
		name:     "sql-maintenance",
	}
}

// Serve implements suture.Service.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logging.Debug().Dur("interval", m.interval).Msg("SQL maintenance started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.target.Maintain()
		}
	}
}

// String implements fmt.Stringer for suture log events.
func (m *MaintenanceService) String() string {
	return m.name
}
