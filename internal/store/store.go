// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package store

import (
	"github.com/tomtom215/grouphub/internal/models"
)

// Slot names one piece of shared session state.
type Slot string

const (
	SlotOnlineMembers Slot = "online_members"
	SlotChatLog       Slot = "chat_log"
	SlotSearch        Slot = "search"
	SlotExplore       Slot = "explore"
)

// AllSlots lists every slot in a stable order.
var AllSlots = []Slot{SlotOnlineMembers, SlotChatLog, SlotSearch, SlotExplore}

// Listener is called after a slot changes. It runs outside the store lock
// and may read the store.
type Listener func(Slot)

// Store holds the state shared between the components of one session.
// Components receive it through their constructors.
//
// Update functions run under the store lock and must not call back into
// the store. Slices passed to and returned from the store are copies.
type Store interface {
	OnlineMembers() []models.OnlineMember
	SetOnlineMembers(members []models.OnlineMember)

	ChatLog() []models.Message
	SetChatLog(messages []models.Message)
	UpdateChatLog(fn func([]models.Message) []models.Message)

	Search() models.SearchState
	UpdateSearch(fn func(models.SearchState) models.SearchState)

	ExplorePages() []models.ExplorePage
	UpdateExplorePages(fn func([]models.ExplorePage) []models.ExplorePage)

	// Subscribe registers l and returns a function that removes it.
	Subscribe(l Listener) (unsubscribe func())
}

// Factory opens a Store per session namespace (typically the user id).
type Factory interface {
	Open(namespace string) (Store, error)
	Close() error
}
