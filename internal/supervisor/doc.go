// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

/*
Package supervisor runs the long-lived parts of the server under a suture
supervisor tree.

Tree layout:

	vendorbase (root)
	├── data-layer   SQL client maintenance
	└── api-layer    HTTP server

A service that returns an error or panics is restarted by its layer. Once a
layer crosses FailureThreshold within the decay window it backs off for
FailureBackoff before restarting again, so a crashing maintenance loop never
takes the HTTP server down with it.

Supervisor events are logged through sutureslog into the zerolog logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewMaintenanceService(client, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))
	err = tree.Serve(ctx)

Serve returns when ctx is canceled and every service has stopped or
ShutdownTimeout has passed; UnstoppedServiceReport lists stragglers.
*/
package supervisor
