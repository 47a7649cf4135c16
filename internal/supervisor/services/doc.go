// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

// Package services adapts blocking components to suture.Service.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown on cancel.
//   - MaintenanceService: periodic SQL client maintenance (expired cache
//     entries, idle pooled connections).
//
// Every service returns ctx.Err() after a clean stop and implements
// fmt.Stringer so suture can name it in log events.
package services
