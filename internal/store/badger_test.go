// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package store

import (
	"testing"

	"github.com/tomtom215/grouphub/internal/models"
)

func TestBadgerFactory_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}

	s, err := f.Open("user-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetChatLog([]models.Message{{ID: "m1", Message: "hi"}})
	s.UpdateSearch(func(st models.SearchState) models.SearchState {
		st.Query = "golang"
		st.Seq = 3
		st.Loading = true
		return st
	})
	s.SetOnlineMembers([]models.OnlineMember{{ID: "u9"}})

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err = OpenBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	s, err = f.Open("user-1")
	if err != nil {
		t.Fatalf("Open after restart: %v", err)
	}
	if log := s.ChatLog(); len(log) != 0 {
		t.Errorf("chat log should not persist, got %v", log)
	}
	if st := s.Search(); st.Query != "golang" || st.Seq != 3 || st.Loading {
		t.Errorf("Search() = %+v, want query restored and loading cleared", st)
	}
	if m := s.OnlineMembers(); len(m) != 0 {
		t.Errorf("online members should not persist, got %v", m)
	}
}

func TestBadgerFactory_NamespacesAreIsolated(t *testing.T) {
	t.Parallel()

	f, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer f.Close()

	a, _ := f.Open("a")
	a.UpdateExplorePages(func([]models.ExplorePage) []models.ExplorePage {
		return []models.ExplorePage{{Term: "art"}}
	})

	b, _ := f.Open("b")
	if len(b.ExplorePages()) != 0 {
		t.Error("namespace b sees namespace a state")
	}

	if err := f.Drop("a"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	a, _ = f.Open("a")
	if len(a.ExplorePages()) != 0 {
		t.Error("dropped namespace still has state")
	}
}

func TestBadgerFactory_EmptyNamespace(t *testing.T) {
	t.Parallel()

	f, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer f.Close()

	if _, err := f.Open(""); err == nil {
		t.Error("expected error for empty namespace")
	}
}
