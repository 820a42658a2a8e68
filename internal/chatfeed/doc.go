// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package chatfeed keeps the chat log of one direct conversation in a store.

A Feed loads the conversation history once and follows the
"table-db-changes" feed for the Message table. The history replaces the
ChatLog slot; live rows are then applied on top:

  - INSERT appends the row, or replaces a row with the same ID
  - UPDATE replaces the row with the same ID in place
  - DELETE removes the row with the same ID

Rows that arrive before the history are buffered and replayed after it, so
a fast live insert is never lost under the history replace. With
FilterParticipants set, rows between other users are dropped. With Dedupe
set, a row ID appears at most once in the log.

Send appends the message optimistically under a fresh UUID and rolls it
back when the onSendMessage action fails.
*/
package chatfeed
