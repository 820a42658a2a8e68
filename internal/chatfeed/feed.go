// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package chatfeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/realtime"
	"github.com/tomtom215/grouphub/internal/store"
)

var (
	// ErrEmptyMessage is returned by Send for a blank body.
	ErrEmptyMessage = errors.New("message body is empty")

	// ErrSendFailed wraps a failed onSendMessage call.
	ErrSendFailed = errors.New("send message failed")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("chat feed closed")
)

// ChangeSource delivers row changes for a table until the returned stop
// function is called.
type ChangeSource interface {
	Subscribe(ctx context.Context, table string, fn func(models.ChangeEvent)) (stop func(), err error)
}

var _ ChangeSource = (*realtime.ChangeFeed)(nil)

// MessageActions are the chat server actions.
type MessageActions interface {
	GetAllUserMessages(ctx context.Context, userID, receiverID string) (models.MessagesResult, error)
	SendMessage(ctx context.Context, senderID, receiverID, messageID, body string) (models.StatusResult, error)
}

// Options tune how live rows are applied.
type Options struct {
	FilterParticipants bool
	Dedupe             bool
}

// Feed is the live chat log between userID and receiverID.
type Feed struct {
	actions    MessageActions
	changes    ChangeSource
	store      store.Store
	userID     string
	receiverID string
	opts       Options
	logger     zerolog.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu serializes every chat log write made by the feed.
	mu            sync.Mutex
	started       bool
	closed        bool
	historyLoaded bool
	buffer        []models.ChangeEvent
	stop          func()
}

// NewFeed returns an unstarted feed.
func NewFeed(actions MessageActions, changes ChangeSource, st store.Store, userID, receiverID string, opts Options) *Feed {
	return &Feed{
		actions:    actions,
		changes:    changes,
		store:      st,
		userID:     userID,
		receiverID: receiverID,
		opts:       opts,
		logger: logging.WithComponent("chatfeed").With().
			Str("user_id", userID).Str("receiver_id", receiverID).Logger(),
		now: time.Now,
	}
}

// ReceiverID is the other participant.
func (f *Feed) ReceiverID() string { return f.receiverID }

// Start subscribes to live changes and loads the history in the
// background.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.started {
		f.mu.Unlock()
		return errors.New("chat feed already started")
	}
	f.started = true
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.mu.Unlock()

	stop, err := f.changes.Subscribe(f.ctx, models.MessagesTable, f.onChange)
	if err != nil {
		f.cancel()
		return fmt.Errorf("subscribe to message changes: %w", err)
	}

	f.mu.Lock()
	f.stop = stop
	f.mu.Unlock()

	f.wg.Add(1)
	go f.loadHistory()
	return nil
}

// Close stops the subscription and drops any in-flight history.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	stop, cancel := f.stop, f.cancel
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stop != nil {
		stop()
	}
	f.wg.Wait()
}

// Send posts body to the receiver. The message shows in the log at once
// and is removed again if the action fails.
func (f *Feed) Send(ctx context.Context, body string) (models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return models.Message{}, ErrEmptyMessage
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		Message:    body,
		CreatedAt:  f.now().UTC(),
		SenderID:   f.userID,
		ReceiverID: f.receiverID,
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return models.Message{}, ErrClosed
	}
	f.store.UpdateChatLog(func(log []models.Message) []models.Message {
		return upsert(log, msg)
	})
	f.mu.Unlock()

	res, err := f.actions.SendMessage(ctx, f.userID, f.receiverID, msg.ID, body)
	if err == nil && res.Status != http.StatusOK {
		err = fmt.Errorf("status %d", res.Status)
	}
	if err != nil {
		f.mu.Lock()
		if !f.closed {
			f.store.UpdateChatLog(func(log []models.Message) []models.Message {
				return remove(log, msg.ID)
			})
		}
		f.mu.Unlock()
		f.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Send message failed, rolled back")
		return models.Message{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return msg, nil
}

func (f *Feed) loadHistory() {
	defer f.wg.Done()

	res, err := f.actions.GetAllUserMessages(f.ctx, f.userID, f.receiverID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.ctx.Err() != nil {
		return
	}

	switch {
	case err != nil:
		f.logger.Warn().Err(err).Msg("Chat history fetch failed")
	case res.Status != 0 && res.Status != http.StatusOK:
		f.logger.Warn().Int("status", res.Status).Msg("Chat history fetch returned non-success status")
	default:
		history := res.Messages
		if f.opts.Dedupe {
			history = dedupe(history)
		}
		f.store.SetChatLog(history)
	}

	f.historyLoaded = true
	buffered := f.buffer
	f.buffer = nil
	for _, ev := range buffered {
		f.applyLocked(ev)
	}
}

func (f *Feed) onChange(ev models.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	event := string(ev.EventType)
	if f.opts.FilterParticipants && !ev.Row().Involves(f.userID, f.receiverID) {
		metrics.ChatEventsTotal.WithLabelValues(event, "filtered").Inc()
		return
	}
	if !f.historyLoaded {
		f.buffer = append(f.buffer, ev)
		metrics.ChatEventsTotal.WithLabelValues(event, "buffered").Inc()
		return
	}
	f.applyLocked(ev)
}

func (f *Feed) applyLocked(ev models.ChangeEvent) {
	outcome := "applied"
	f.store.UpdateChatLog(func(log []models.Message) []models.Message {
		switch ev.EventType {
		case models.ChangeInsert:
			if f.opts.Dedupe {
				if indexOf(log, ev.New.ID) >= 0 {
					outcome = "duplicate"
				}
				return upsert(log, ev.New)
			}
			return append(log, ev.New)
		case models.ChangeUpdate:
			return upsert(log, ev.New)
		case models.ChangeDelete:
			return remove(log, ev.Old.ID)
		default:
			outcome = "ignored"
			return log
		}
	})
	metrics.ChatEventsTotal.WithLabelValues(string(ev.EventType), outcome).Inc()
}

func indexOf(log []models.Message, id string) int {
	for i := range log {
		if log[i].ID == id {
			return i
		}
	}
	return -1
}

// upsert replaces the row with msg's ID in place, or appends msg.
func upsert(log []models.Message, msg models.Message) []models.Message {
	if i := indexOf(log, msg.ID); i >= 0 {
		log[i] = msg
		return log
	}
	return append(log, msg)
}

func remove(log []models.Message, id string) []models.Message {
	out := log[:0]
	for _, m := range log {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func dedupe(in []models.Message) []models.Message {
	out := make([]models.Message, 0, len(in))
	for _, m := range in {
		out = upsert(out, m)
	}
	return out
}
