// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package store

import (
	"sync"
	"testing"

	"github.com/tomtom215/grouphub/internal/models"
)

func TestMemoryStore_OnlineMembers(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	in := []models.OnlineMember{{ID: "u1"}, {ID: "u2"}}
	s.SetOnlineMembers(in)

	in[0].ID = "mutated"
	got := s.OnlineMembers()
	if len(got) != 2 || got[0].ID != "u1" {
		t.Fatalf("OnlineMembers() = %v, want copy of input", got)
	}

	got[1].ID = "mutated"
	if s.OnlineMembers()[1].ID != "u2" {
		t.Error("returned slice aliases store state")
	}
}

func TestMemoryStore_ChatLogUpdate(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	s.SetChatLog([]models.Message{{ID: "1"}})
	s.UpdateChatLog(func(log []models.Message) []models.Message {
		return append(log, models.Message{ID: "2"})
	})

	log := s.ChatLog()
	if len(log) != 2 || log[0].ID != "1" || log[1].ID != "2" {
		t.Errorf("ChatLog() = %v, want [1 2]", log)
	}
}

func TestMemoryStore_SearchAndExplore(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	s.UpdateSearch(func(st models.SearchState) models.SearchState {
		st.Query = "go"
		st.Results = []models.GroupSummary{{ID: "g1"}}
		return st
	})
	if st := s.Search(); st.Query != "go" || len(st.Results) != 1 {
		t.Errorf("Search() = %+v", st)
	}

	s.UpdateExplorePages(func(p []models.ExplorePage) []models.ExplorePage {
		return append(p, models.ExplorePage{Term: "go", Page: 0, Groups: []models.GroupSummary{{ID: "g2"}}})
	})
	pages := s.ExplorePages()
	if len(pages) != 1 || pages[0].Groups[0].ID != "g2" {
		t.Errorf("ExplorePages() = %+v", pages)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()

	var mu sync.Mutex
	var seen []Slot
	unsub := s.Subscribe(func(slot Slot) {
		// Reading from a listener must not deadlock.
		_ = s.ChatLog()
		mu.Lock()
		seen = append(seen, slot)
		mu.Unlock()
	})

	s.SetOnlineMembers(nil)
	s.SetChatLog(nil)
	unsub()
	unsub()
	s.SetChatLog(nil)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != SlotOnlineMembers || seen[1] != SlotChatLog {
		t.Errorf("seen = %v, want [online_members chat_log]", seen)
	}
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdateChatLog(func(log []models.Message) []models.Message {
				return append(log, models.Message{})
			})
		}()
	}
	wg.Wait()

	if n := len(s.ChatLog()); n != 50 {
		t.Errorf("len(ChatLog()) = %d, want 50", n)
	}
}

func TestMemoryFactory(t *testing.T) {
	t.Parallel()

	var f Factory = MemoryFactory{}
	a, _ := f.Open("u1")
	b, _ := f.Open("u1")
	a.SetChatLog([]models.Message{{ID: "1"}})
	if len(b.ChatLog()) != 0 {
		t.Error("memory stores must not share state")
	}
}
