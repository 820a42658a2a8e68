// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/grouphub/internal/chatfeed"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/presence"
	"github.com/tomtom215/grouphub/internal/search"
	"github.com/tomtom215/grouphub/internal/store"
)

// ErrManagerClosed is returned by Open after CloseAll.
var ErrManagerClosed = errors.New("session manager is closed")

// Actions is the subset of server actions a session uses.
type Actions interface {
	search.GroupSearcher
	search.ExploreFetcher
	chatfeed.MessageActions
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Actions Actions
	// Presence returns a fresh channel handle per session.
	Presence func() presence.Channel
	Changes  chatfeed.ChangeSource
	Stores   store.Factory

	SearchKind  models.SearchKind
	SearchDelay time.Duration
	Chat        chatfeed.Options
}

// Manager opens and tracks the sessions of this instance.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates a Manager.
func NewManager(deps Deps) *Manager {
	if deps.SearchDelay <= 0 {
		deps.SearchDelay = search.DefaultDelay
	}
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session for userID that pushes to out. The store is opened
// under the user's namespace, so a reconnecting browser sees its previous
// search and explore pages.
func (m *Manager) Open(ctx context.Context, userID string, out Outbound) (*Session, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrManagerClosed
	}

	st, err := m.deps.Stores.Open(userID)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	s := newSession(m, ctx, userID, out, st)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	if err := s.start(); err != nil {
		s.Close()
		return nil, err
	}

	logging.Ctx(s.ctx).Info().Int("sessions", m.Count()).Msg("Session opened")
	return s, nil
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// UserSessions returns the IDs of userID's open sessions, sorted.
func (m *Manager) UserSessions(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.userID == userID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// CloseAll closes every session and rejects new ones.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}
