// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
)

// ChangeFeed carries row-change events for database tables.
type ChangeFeed struct {
	bus   *Bus
	topic string
}

// Changes returns the change feed published on topic.
func (b *Bus) Changes(topic string) *ChangeFeed {
	return &ChangeFeed{bus: b, topic: topic}
}

// PublishChange broadcasts ev to every subscriber of the feed.
func (f *ChangeFeed) PublishChange(ctx context.Context, ev models.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return f.bus.Publish(ctx, f.topic, data, map[string]string{
		"table":      ev.Table,
		"event_type": string(ev.EventType),
	})
}

// Subscribe delivers the events for table to fn, in arrival order, until
// the returned stop function is called or ctx ends. An empty table matches
// every table. fn runs on the feed goroutine.
func (f *ChangeFeed) Subscribe(ctx context.Context, table string, fn func(models.ChangeEvent)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	messages, err := f.bus.Subscribe(subCtx, f.topic)
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				metrics.RealtimeReceived.WithLabelValues(f.topic).Inc()

				var ev models.ChangeEvent
				if err := json.Unmarshal(msg.Payload, &ev); err != nil {
					logging.Warn().Err(err).Str("topic", f.topic).Msg("Dropping malformed change event")
					msg.Ack()
					continue
				}
				msg.Ack()
				if table == "" || ev.Table == table {
					fn(ev)
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return stop, nil
}
