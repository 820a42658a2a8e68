// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package session binds one websocket connection to the client-side state
components: a debounced search box, the explore feed, presence on the
shared tracking channel and at most one open chat.

Every component writes into a store.Store opened under the user's
namespace. The session subscribes to the store and pushes each changed
slot to the browser as a typed frame:

	online_members  []models.OnlineMember
	chat_log        []models.Message
	search_state    models.SearchState
	explore_pages   []models.ExplorePage

Inbound frames are search, explore, explore_more, open_chat, close_chat
and send_message. Invalid frames get an error frame and leave the state
untouched.

A Manager owns the shared dependencies and tracks open sessions so the
server can close them all on shutdown.
*/
package session
