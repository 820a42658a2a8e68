// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package presence tracks which users are online in a group workspace.

A Tracker joins the "tracking" presence channel, publishes its own
{member:{userid}} payload once subscribed, and reduces every sync snapshot
into the OnlineMembers slot of its store. Each sync replaces the slot
wholesale; the tracker never diffs against the previous set.

Lifecycle:

	DISCONNECTED --Start--> JOINING --SUBSCRIBED--> SUBSCRIBED --Stop--> CLOSED

A channel error while joining drops the tracker back to DISCONNECTED so the
owner may Start it again. Stop is terminal and does not wait for the untrack
to reach other clients.

NewObserver builds a tracker that only listens; it never appears in the set.

Roster joins the group member list with the online set for display.
*/
package presence
