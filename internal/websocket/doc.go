// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package websocket carries session traffic between browsers and Grouphub.

It uses gorilla/websocket with a hub-client architecture:

  - Hub: registry of connected clients, indexed by user, with broadcast and
    per-user delivery (used to push notifications from HTTP requests to the
    user's open tabs)
  - Client: one connection with a read goroutine and a write goroutine
  - Handler: receives every frame except pings; the session layer
    implements it

Each client has two goroutines:
  - readPump: decodes frames, answers pings, hands the rest to the Handler
  - writePump: writes queued messages and keepalive pings

Frames are JSON objects {"type": "...", "data": ...}. A malformed frame
gets an "error" reply and the connection stays open.

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	client := websocket.NewClient(hub, conn, userID)
	client.SetHandler(session)
	if hub.Add(client) {
	    client.Start(ctx)
	}
*/
package websocket
