// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package services adapts Grouphub components to suture.Service.

Each wrapper turns one lifecycle shape into Serve(ctx) error:

  - HTTPServerService: ListenAndServe plus Shutdown with a drain timeout
  - HubService: the websocket hub's RunWithContext
  - ComponentService: single-use Start/Stop components such as the
    presence observer, rebuilt on every restart
  - TeardownService: resources opened before the tree starts, released
    when it stops

Every wrapper implements fmt.Stringer so supervisor events name it.
*/
package services
