// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/chatfeed"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
	"github.com/tomtom215/grouphub/internal/presence"
	"github.com/tomtom215/grouphub/internal/search"
	"github.com/tomtom215/grouphub/internal/store"
	"github.com/tomtom215/grouphub/internal/websocket"
)

// Inbound message types.
const (
	TypeSearch      = "search"
	TypeExplore     = "explore"
	TypeExploreMore = "explore_more"
	TypeOpenChat    = "open_chat"
	TypeCloseChat   = "close_chat"
	TypeSendMessage = "send_message"
)

// Outbound message types.
const (
	TypeOnlineMembers = "online_members"
	TypeChatLog       = "chat_log"
	TypeSearchState   = "search_state"
	TypeExplorePages  = "explore_pages"
	TypeMessageSent   = "message_sent"
)

// ErrNoChat is returned by send_message before open_chat.
var ErrNoChat = errors.New("no chat is open")

// Outbound delivers messages to the browser. *websocket.Client satisfies it.
type Outbound interface {
	Send(msgType string, data interface{}) bool
}

// SearchData is the payload of a search message.
type SearchData struct {
	Query string            `json:"query"`
	Kind  models.SearchKind `json:"kind,omitempty"`
}

// ExploreData is the payload of an explore message.
type ExploreData struct {
	Term string `json:"term"`
}

// OpenChatData is the payload of an open_chat message.
type OpenChatData struct {
	ReceiverID string `json:"receiverId"`
}

// SendMessageData is the payload of a send_message message.
type SendMessageData struct {
	Body string `json:"body"`
}

// Session is one browser connection's view: a search box, an explore
// feed, presence and at most one open chat, all writing into one store
// whose changes are pushed to the browser.
type Session struct {
	id      string
	userID  string
	manager *Manager
	out     Outbound
	store   store.Store
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	explorer    *search.Explorer
	tracker     *presence.Tracker
	unsubscribe func()

	mu       sync.Mutex
	searcher *search.Searcher
	feed     *chatfeed.Feed
	closed   bool
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the session's user.
func (s *Session) UserID() string { return s.userID }

func newSession(m *Manager, parent context.Context, userID string, out Outbound, st store.Store) *Session {
	id := uuid.NewString()
	ctx := logging.ContextWithSessionID(context.WithoutCancel(parent), id)
	ctx = logging.ContextWithUserID(ctx, userID)
	ctx, cancel := context.WithCancel(ctx)

	return &Session{
		id:      id,
		userID:  userID,
		manager: m,
		out:     out,
		store:   st,
		logger:  logging.WithComponent("session").With().Str("session_id", id).Str("user_id", userID).Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Session) start() error {
	d := s.manager.deps

	s.unsubscribe = s.store.Subscribe(s.push)
	s.searcher = search.NewSearcher(s.ctx, d.Actions, s.store, d.SearchKind, d.SearchDelay)
	s.explorer = search.NewExplorer(s.ctx, d.Actions, s.store)

	s.tracker = presence.NewTracker(d.Presence(), s.store, s.userID)
	if err := s.tracker.Start(s.ctx); err != nil {
		return fmt.Errorf("start presence: %w", err)
	}

	for _, slot := range store.AllSlots {
		s.push(slot)
	}
	return nil
}

// HandleMessage dispatches one inbound frame. It implements websocket.Handler.
// Work started by a frame runs under the session's own context, which
// outlives the upgrade request.
func (s *Session) HandleMessage(_ context.Context, msgType string, data []byte) {
	var err error
	switch msgType {
	case TypeSearch:
		err = s.handleSearch(data)
	case TypeExplore:
		var in ExploreData
		if err = decode(data, &in); err == nil {
			s.explorer.Reset(strings.TrimSpace(in.Term))
		}
	case TypeExploreMore:
		s.explorer.More()
	case TypeOpenChat:
		err = s.handleOpenChat(data)
	case TypeCloseChat:
		s.closeChat()
	case TypeSendMessage:
		err = s.handleSendMessage(s.ctx, data)
	default:
		err = fmt.Errorf("unknown message type %q", msgType)
	}

	if err != nil {
		s.logger.Debug().Err(err).Str("message_type", msgType).Msg("Rejected session message")
		s.out.Send(websocket.MessageTypeError, websocket.ErrorData{Message: err.Error()})
	}
}

func decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}

func (s *Session) handleSearch(data []byte) error {
	var in SearchData
	if err := decode(data, &in); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if in.Kind != "" && in.Kind != s.searcher.Kind() {
		if in.Kind != models.SearchKindGroups && in.Kind != models.SearchKindPosts {
			return fmt.Errorf("unknown search kind %q", in.Kind)
		}
		s.searcher.Close()
		s.store.UpdateSearch(func(models.SearchState) models.SearchState { return models.SearchState{} })
		d := s.manager.deps
		s.searcher = search.NewSearcher(s.ctx, d.Actions, s.store, in.Kind, d.SearchDelay)
	}
	s.searcher.Input(in.Query)
	return nil
}

func (s *Session) handleOpenChat(data []byte) error {
	var in OpenChatData
	if err := decode(data, &in); err != nil {
		return err
	}
	if in.ReceiverID == "" {
		return errors.New("receiverId is required")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	old := s.feed
	if old != nil && old.ReceiverID() == in.ReceiverID {
		s.mu.Unlock()
		return nil
	}
	d := s.manager.deps
	feed := chatfeed.NewFeed(d.Actions, d.Changes, s.store, s.userID, in.ReceiverID, d.Chat)
	s.feed = feed
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	s.store.SetChatLog(nil)
	if err := feed.Start(s.ctx); err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	return nil
}

func (s *Session) closeChat() {
	s.mu.Lock()
	feed := s.feed
	s.feed = nil
	s.mu.Unlock()
	if feed != nil {
		feed.Close()
		s.store.SetChatLog(nil)
	}
}

func (s *Session) handleSendMessage(ctx context.Context, data []byte) error {
	var in SendMessageData
	if err := decode(data, &in); err != nil {
		return err
	}

	s.mu.Lock()
	feed := s.feed
	s.mu.Unlock()
	if feed == nil {
		return ErrNoChat
	}

	msg, err := feed.Send(ctx, in.Body)
	switch {
	case errors.Is(err, chatfeed.ErrEmptyMessage):
		return err
	case err != nil:
		s.Notify(ctx, notify.Error("Message not sent", "Your message could not be delivered"))
		return nil
	}
	s.out.Send(TypeMessageSent, msg)
	return nil
}

// Notify pushes a notification to this session only.
func (s *Session) Notify(_ context.Context, n notify.Notification) {
	s.out.Send(websocket.MessageTypeNotification, n)
}

// push sends the current value of slot. It runs as a store listener,
// possibly while a component holds its own lock, so it only reads the store.
func (s *Session) push(slot store.Slot) {
	switch slot {
	case store.SlotOnlineMembers:
		s.out.Send(TypeOnlineMembers, s.store.OnlineMembers())
	case store.SlotChatLog:
		s.out.Send(TypeChatLog, s.store.ChatLog())
	case store.SlotSearch:
		s.out.Send(TypeSearchState, s.store.Search())
	case store.SlotExplore:
		s.out.Send(TypeExplorePages, s.store.ExplorePages())
	}
}

// Close tears the session down. It implements websocket.Handler and is
// safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	feed, searcher := s.feed, s.searcher
	s.mu.Unlock()

	if s.tracker != nil {
		s.tracker.Stop()
	}
	if feed != nil {
		feed.Close()
	}
	if searcher != nil {
		searcher.Close()
	}
	if s.explorer != nil {
		s.explorer.Close()
	}
	s.cancel()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.manager.remove(s)
	s.logger.Debug().Msg("Session closed")
}

var (
	_ websocket.Handler = (*Session)(nil)
	_ notify.Notifier   = (*Session)(nil)
	_ Outbound          = (*websocket.Client)(nil)
)
