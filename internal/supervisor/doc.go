// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package supervisor runs Grouphub's long-lived services under a suture v4
tree with restart, backoff and ordered shutdown.

	grouphub
	├── transport-layer
	│   ├── nats-server        (embedded mode only)
	│   └── realtime-bus
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── presence-observer
	│   └── sessions
	└── api-layer
	    └── http-server

A service that keeps failing puts only its own layer into backoff.
Supervisor events go to the process log through sutureslog and the
logging package's slog bridge.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

See the services package for the wrappers.
*/
package supervisor
