// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/realtime"
	"github.com/tomtom215/grouphub/internal/store"
)

// ErrAlreadyStarted is returned by Start outside the DISCONNECTED state.
var ErrAlreadyStarted = errors.New("presence tracker already started")

// State is the tracker lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateJoining
	StateSubscribed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateJoining:
		return "JOINING"
	case StateSubscribed:
		return "SUBSCRIBED"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Channel is a presence channel. realtime.PresenceChannel implements it.
type Channel interface {
	OnSync(fn func(models.PresenceSnapshot))
	Subscribe(ctx context.Context, onStatus func(realtime.ChannelStatus, error)) error
	Track(ctx context.Context, payload models.PresencePayload) error
	Unsubscribe()
}

var _ Channel = (*realtime.PresenceChannel)(nil)

// Tracker publishes one user's presence and mirrors the online set into a
// store.
type Tracker struct {
	channel Channel
	store   store.Store
	userID  string
	logger  zerolog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// NewTracker returns a DISCONNECTED tracker for userID.
func NewTracker(ch Channel, st store.Store, userID string) *Tracker {
	return &Tracker{
		channel: ch,
		store:   st,
		userID:  userID,
		logger:  logging.WithComponent("presence").With().Str("user_id", userID).Logger(),
	}
}

// NewObserver returns a tracker that mirrors the online set without
// announcing a user of its own. The server uses one to annotate rosters.
func NewObserver(ch Channel, st store.Store) *Tracker {
	return &Tracker{
		channel: ch,
		store:   st,
		logger:  logging.WithComponent("presence").With().Bool("observer", true).Logger(),
	}
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start joins the channel. The tracker moves to SUBSCRIBED, and tracks
// itself, when the channel reports the subscription live.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateDisconnected {
		state := t.state
		t.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrAlreadyStarted, state)
	}
	ctx, cancel := context.WithCancel(ctx)
	t.state = StateJoining
	t.cancel = cancel
	t.mu.Unlock()

	t.channel.OnSync(t.onSync)

	// The channel may report status synchronously, so no lock is held here.
	if err := t.channel.Subscribe(ctx, func(status realtime.ChannelStatus, err error) {
		t.onStatus(ctx, status, err)
	}); err != nil {
		t.mu.Lock()
		if t.state == StateJoining {
			t.state = StateDisconnected
		}
		t.mu.Unlock()
		cancel()
		return fmt.Errorf("subscribe presence channel: %w", err)
	}
	return nil
}

// Stop leaves the channel. CLOSED is terminal.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return
	}
	wasStarted := t.state != StateDisconnected
	t.state = StateClosed
	cancel := t.cancel
	t.mu.Unlock()

	if wasStarted {
		t.channel.Unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}

func (t *Tracker) onStatus(ctx context.Context, status realtime.ChannelStatus, err error) {
	switch status {
	case realtime.StatusSubscribed:
		t.mu.Lock()
		if t.state != StateJoining {
			t.mu.Unlock()
			return
		}
		t.state = StateSubscribed
		t.mu.Unlock()

		if t.userID == "" {
			return
		}
		payload := models.PresencePayload{Member: models.PresenceMember{UserID: t.userID}}
		if err := t.channel.Track(ctx, payload); err != nil {
			t.logger.Warn().Err(err).Msg("Failed to track presence")
		}

	case realtime.StatusChannelError:
		t.logger.Warn().Err(err).Msg("Presence channel error")
		t.mu.Lock()
		if t.state == StateJoining {
			t.state = StateDisconnected
		}
		t.mu.Unlock()

	case realtime.StatusClosed:
		t.mu.Lock()
		t.state = StateClosed
		t.mu.Unlock()
	}
}

func (t *Tracker) onSync(snap models.PresenceSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateClosed {
		return
	}

	members := Reduce(snap)
	t.store.SetOnlineMembers(members)
	metrics.PresenceSyncs.Inc()
	metrics.PresenceOnlineMembers.Set(float64(len(members)))
}

// Reduce maps a snapshot to its online members: the first payload's user
// of every key, in key order. A user tracked from several clients appears
// once.
func Reduce(snap models.PresenceSnapshot) []models.OnlineMember {
	members := make([]models.OnlineMember, 0, len(snap))
	seen := make(map[string]struct{}, len(snap))
	for _, key := range snap.Keys() {
		payloads := snap[key]
		if len(payloads) == 0 {
			continue
		}
		id := payloads[0].Member.UserID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, models.OnlineMember{ID: id})
	}
	return members
}
