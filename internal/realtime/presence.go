// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
)

// ChannelStatus is reported to the Subscribe callback.
type ChannelStatus string

const (
	StatusSubscribed   ChannelStatus = "SUBSCRIBED"
	StatusChannelError ChannelStatus = "CHANNEL_ERROR"
	StatusClosed       ChannelStatus = "CLOSED"
)

type envelopeType string

const (
	envTrack       envelopeType = "track"
	envUntrack     envelopeType = "untrack"
	envHeartbeat   envelopeType = "heartbeat"
	envSyncRequest envelopeType = "sync_request"
)

// presenceEnvelope is the wire message on a presence topic. Seq is
// monotonic per sender key so reordered deliveries can be discarded.
type presenceEnvelope struct {
	Type     envelopeType             `json:"type"`
	Key      string                   `json:"key"`
	Seq      uint64                   `json:"seq"`
	Payloads []models.PresencePayload `json:"payloads,omitempty"`
}

type presenceEntry struct {
	payloads []models.PresencePayload
	seq      uint64
	seen     time.Time
}

// PresenceChannel tracks which clients are present on a topic. Each
// channel is one tracked client with its own key. Every membership change
// produces a sync event carrying the full snapshot.
type PresenceChannel struct {
	bus       *Bus
	topic     string
	key       string
	heartbeat time.Duration
	ttl       time.Duration
	now       func() time.Time

	mu         sync.Mutex
	state      map[string]*presenceEntry
	tombstones map[string]uint64
	listeners  []func(models.PresenceSnapshot)
	tracked    []models.PresencePayload
	seq        uint64
	onStatus   func(ChannelStatus, error)
	cancel     context.CancelFunc
	done       chan struct{}
}

// Presence creates a presence channel on topic. Remote entries that miss
// three heartbeats are dropped.
func (b *Bus) Presence(topic string, heartbeat time.Duration) *PresenceChannel {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &PresenceChannel{
		bus:        b,
		topic:      topic,
		key:        uuid.NewString(),
		heartbeat:  heartbeat,
		ttl:        3 * heartbeat,
		now:        time.Now,
		state:      make(map[string]*presenceEntry),
		tombstones: make(map[string]uint64),
	}
}

// Key is this client's presence key.
func (c *PresenceChannel) Key() string { return c.key }

// Topic is the channel name.
func (c *PresenceChannel) Topic() string { return c.topic }

// OnSync registers fn to receive the full snapshot after each change.
// Register before Subscribe.
func (c *PresenceChannel) OnSync(fn func(models.PresenceSnapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Subscribe joins the topic. onStatus receives SUBSCRIBED once the
// subscription is live, CHANNEL_ERROR if it could not be made, and CLOSED
// after Unsubscribe.
func (c *PresenceChannel) Subscribe(ctx context.Context, onStatus func(ChannelStatus, error)) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return fmt.Errorf("presence channel %s already subscribed", c.topic)
	}
	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.onStatus = onStatus
	c.mu.Unlock()

	messages, err := c.bus.Subscribe(subCtx, c.topic)
	if err != nil {
		cancel()
		close(c.done)
		if onStatus != nil {
			onStatus(StatusChannelError, err)
		}
		return err
	}

	go c.run(subCtx, messages)

	if onStatus != nil {
		onStatus(StatusSubscribed, nil)
	}
	// Ask present peers to re-announce so the first sync is complete.
	if err := c.send(subCtx, envSyncRequest, nil); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("topic", c.topic).Msg("Presence sync request failed")
	}
	return nil
}

// Track publishes payload as this client's presence.
func (c *PresenceChannel) Track(ctx context.Context, payload models.PresencePayload) error {
	c.mu.Lock()
	c.tracked = []models.PresencePayload{payload}
	c.mu.Unlock()
	return c.send(ctx, envTrack, []models.PresencePayload{payload})
}

// Untrack withdraws this client's presence.
func (c *PresenceChannel) Untrack(ctx context.Context) error {
	c.mu.Lock()
	c.tracked = nil
	c.mu.Unlock()
	return c.send(ctx, envUntrack, nil)
}

// Unsubscribe leaves the topic. The untrack is sent best effort; peers
// that miss it drop this client after the heartbeat TTL.
func (c *PresenceChannel) Unsubscribe() {
	c.mu.Lock()
	cancel, done, onStatus := c.cancel, c.done, c.onStatus
	tracked := len(c.tracked) > 0
	c.mu.Unlock()
	if cancel == nil {
		return
	}

	if tracked {
		ctx, stop := context.WithTimeout(context.Background(), time.Second)
		_ = c.Untrack(ctx)
		stop()
	}
	cancel()
	<-done

	if onStatus != nil {
		onStatus(StatusClosed, nil)
	}
}

// State returns the current snapshot.
func (c *PresenceChannel) State() models.PresenceSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *PresenceChannel) snapshotLocked() models.PresenceSnapshot {
	snap := make(models.PresenceSnapshot, len(c.state))
	for key, e := range c.state {
		cp := make([]models.PresencePayload, len(e.payloads))
		copy(cp, e.payloads)
		snap[key] = cp
	}
	return snap
}

func (c *PresenceChannel) send(ctx context.Context, typ envelopeType, payloads []models.PresencePayload) error {
	c.mu.Lock()
	c.seq++
	env := presenceEnvelope{Type: typ, Key: c.key, Seq: c.seq, Payloads: payloads}
	c.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal presence envelope: %w", err)
	}
	return c.bus.Publish(ctx, c.topic, data, map[string]string{"presence_type": string(typ)})
}

func (c *PresenceChannel) run(ctx context.Context, messages <-chan *message.Message) {
	defer close(c.done)

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.handle(ctx, msg)
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *PresenceChannel) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()
	metrics.RealtimeReceived.WithLabelValues(c.topic).Inc()

	var env presenceEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", c.topic).Msg("Dropping malformed presence message")
		return
	}

	if env.Type == envSyncRequest {
		if env.Key != c.key {
			c.reannounce(ctx)
		}
		return
	}

	if c.apply(env) {
		c.emit()
	}
}

// apply folds env into the state and reports whether membership changed.
func (c *PresenceChannel) apply(env presenceEnvelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if env.Seq <= c.tombstones[env.Key] {
		return false
	}
	entry, exists := c.state[env.Key]
	if exists && env.Seq <= entry.seq {
		return false
	}

	switch env.Type {
	case envTrack, envHeartbeat:
		changed := !exists || !samePayloads(entry.payloads, env.Payloads)
		c.state[env.Key] = &presenceEntry{payloads: env.Payloads, seq: env.Seq, seen: c.now()}
		return changed
	case envUntrack:
		c.tombstones[env.Key] = env.Seq
		if exists {
			delete(c.state, env.Key)
			return true
		}
	}
	return false
}

func (c *PresenceChannel) reannounce(ctx context.Context) {
	c.mu.Lock()
	tracked := c.tracked
	c.mu.Unlock()
	if len(tracked) == 0 {
		return
	}
	if err := c.send(ctx, envTrack, tracked); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("topic", c.topic).Msg("Presence re-announce failed")
	}
}

// tick sends the heartbeat and expires silent peers.
func (c *PresenceChannel) tick(ctx context.Context) {
	c.mu.Lock()
	tracked := c.tracked
	c.mu.Unlock()
	if len(tracked) > 0 {
		if err := c.send(ctx, envHeartbeat, tracked); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("topic", c.topic).Msg("Presence heartbeat failed")
		}
	}

	if c.expire() {
		c.emit()
	}
}

func (c *PresenceChannel) expire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl)
	removed := false
	for key, e := range c.state {
		if key != c.key && e.seen.Before(cutoff) {
			c.tombstones[key] = e.seq
			delete(c.state, key)
			removed = true
		}
	}
	return removed
}

func (c *PresenceChannel) emit() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	listeners := make([]func(models.PresenceSnapshot), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap.Clone())
	}
}

func samePayloads(a, b []models.PresencePayload) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
