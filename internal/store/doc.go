// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package store holds the per-session state shared by the search, presence
and chat components: online members, the chat log, the search view and the
explore pages.

Components never reach a global; a Store is passed to each constructor.
MemoryStore keeps state in process. BadgerFactory layers persistence on top
so a reconnecting client gets its last search and explore pages back.
Online members and the chat log belong to live subscriptions and are never
persisted.

Listeners registered with Subscribe are called with the changed Slot after
the write completes:

	unsub := st.Subscribe(func(slot store.Slot) {
	    if slot == store.SlotChatLog {
	        push(st.ChatLog())
	    }
	})
	defer unsub()
*/
package store
