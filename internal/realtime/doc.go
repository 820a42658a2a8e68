// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package realtime provides the broadcast channels Grouphub sessions use for
presence and database change notifications.

A Bus wraps a Watermill publisher/subscriber pair. Two transports exist:

  - nats: core NATS (no JetStream) via watermill-nats, optionally backed by
    an EmbeddedServer started in-process
  - memory: Watermill's gochannel, for a single instance and for tests

On top of the Bus:

  - PresenceChannel: per-client presence tracking. Clients Track a payload,
    heartbeat it, and receive a full snapshot on every membership change.
    Envelopes carry a per-client sequence number so late deliveries never
    resurrect a client that already left.
  - ChangeFeed: row-change events (INSERT, UPDATE, DELETE) filtered by table.

Publishes go through a gobreaker circuit breaker; while it is open callers
get an error immediately and continue on local state.

Usage:

	bus := realtime.NewMemoryBus(nil)
	ch := bus.Presence("tracking", 15*time.Second)
	ch.OnSync(func(s models.PresenceSnapshot) { ... })
	_ = ch.Subscribe(ctx, nil)
	_ = ch.Track(ctx, models.PresencePayload{Member: models.PresenceMember{UserID: "u1"}})
*/
package realtime
