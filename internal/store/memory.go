// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package store

import (
	"sync"

	"github.com/tomtom215/grouphub/internal/models"
)

// State is a full copy of the store contents.
type State struct {
	OnlineMembers []models.OnlineMember `json:"online_members"`
	ChatLog       []models.Message      `json:"chat_log"`
	Search        models.SearchState    `json:"search"`
	Explore       []models.ExplorePage  `json:"explore"`
}

// MemoryStore is the in-process Store. Updates are serialized by a mutex
// and listeners are notified after the lock is released.
type MemoryStore struct {
	mu        sync.RWMutex
	state     State
	listeners map[uint64]Listener
	nextID    uint64

	// onChange runs under mu after every write; BadgerStore hooks it.
	onChange func(Slot, *State)
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listeners: make(map[uint64]Listener)}
}

// newMemoryStoreFrom seeds a store with a previously saved state.
func newMemoryStoreFrom(state State) *MemoryStore {
	s := NewMemoryStore()
	s.state = state
	return s
}

func (s *MemoryStore) OnlineMembers() []models.OnlineMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.OnlineMembers)
}

func (s *MemoryStore) SetOnlineMembers(members []models.OnlineMember) {
	s.write(SlotOnlineMembers, func(st *State) {
		st.OnlineMembers = cloneSlice(members)
	})
}

func (s *MemoryStore) ChatLog() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.ChatLog)
}

func (s *MemoryStore) SetChatLog(messages []models.Message) {
	s.write(SlotChatLog, func(st *State) {
		st.ChatLog = cloneSlice(messages)
	})
}

func (s *MemoryStore) UpdateChatLog(fn func([]models.Message) []models.Message) {
	s.write(SlotChatLog, func(st *State) {
		st.ChatLog = cloneSlice(fn(cloneSlice(st.ChatLog)))
	})
}

func (s *MemoryStore) Search() models.SearchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSearch(s.state.Search)
}

func (s *MemoryStore) UpdateSearch(fn func(models.SearchState) models.SearchState) {
	s.write(SlotSearch, func(st *State) {
		st.Search = cloneSearch(fn(cloneSearch(st.Search)))
	})
}

func (s *MemoryStore) ExplorePages() []models.ExplorePage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePages(s.state.Explore)
}

func (s *MemoryStore) UpdateExplorePages(fn func([]models.ExplorePage) []models.ExplorePage) {
	s.write(SlotExplore, func(st *State) {
		st.Explore = clonePages(fn(clonePages(st.Explore)))
	})
}

// Snapshot returns a copy of the whole state.
func (s *MemoryStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		OnlineMembers: cloneSlice(s.state.OnlineMembers),
		ChatLog:       cloneSlice(s.state.ChatLog),
		Search:        cloneSearch(s.state.Search),
		Explore:       clonePages(s.state.Explore),
	}
}

func (s *MemoryStore) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *MemoryStore) write(slot Slot, mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	if s.onChange != nil {
		s.onChange(slot, &s.state)
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(slot)
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneSearch(st models.SearchState) models.SearchState {
	st.Results = cloneSlice(st.Results)
	return st
}

func clonePages(in []models.ExplorePage) []models.ExplorePage {
	if in == nil {
		return nil
	}
	out := make([]models.ExplorePage, len(in))
	for i, p := range in {
		p.Groups = cloneSlice(p.Groups)
		out[i] = p
	}
	return out
}

// MemoryFactory hands out a fresh MemoryStore per Open.
type MemoryFactory struct{}

func (MemoryFactory) Open(string) (Store, error) { return NewMemoryStore(), nil }
func (MemoryFactory) Close() error               { return nil }

var (
	_ Store   = (*MemoryStore)(nil)
	_ Factory = MemoryFactory{}
)
