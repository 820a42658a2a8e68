// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/metrics"
)

// Transports accepted in RealtimeConfig.Transport.
const (
	TransportNATS   = "nats"
	TransportMemory = "memory"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("realtime bus is closed")

// Bus is a broadcast pub/sub: every subscriber of a topic receives every
// message published on it, on this instance and, with NATS, on every other
// instance connected to the same server.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	cb         *gobreaker.CircuitBreaker[struct{}]
	transport  string
	connected  atomic.Bool

	mu     sync.RWMutex
	closed bool
}

// New builds the bus selected by cfg.Transport. url overrides cfg.URL when
// non-empty (used with the embedded server).
func New(cfg config.RealtimeConfig, url string, logger watermill.LoggerAdapter) (*Bus, error) {
	switch cfg.Transport {
	case TransportMemory:
		return NewMemoryBus(logger), nil
	case TransportNATS, "":
		if url == "" {
			url = cfg.URL
		}
		return NewNATSBus(cfg, url, logger)
	default:
		return nil, fmt.Errorf("unknown realtime transport %q", cfg.Transport)
	}
}

// NewMemoryBus returns an in-process bus for single-instance deployments
// and tests.
func NewMemoryBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)

	b := &Bus{
		publisher:  ch,
		subscriber: ch,
		cb:         newPublishBreaker("realtime-memory"),
		transport:  TransportMemory,
	}
	b.connected.Store(true)
	return b
}

// NewNATSBus connects to core NATS. JetStream is disabled: presence and
// change notifications are fire-and-forget broadcasts, and subscribers use
// no queue group so every instance sees every message.
func NewNATSBus(cfg config.RealtimeConfig, url string, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	b := &Bus{
		cb:        newPublishBreaker("realtime-nats"),
		transport: TransportNATS,
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("grouphub"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ConnectHandler(func(nc *natsgo.Conn) {
			b.connected.Store(true)
			logger.Info("NATS connected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			b.connected.Store(false)
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			b.connected.Store(true)
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     5 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		pub.Close() //nolint:errcheck
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	b.publisher = pub
	b.subscriber = sub
	// NewPublisher connects synchronously unless the server is unreachable,
	// in which case RetryOnFailedConnect keeps trying in the background.
	b.connected.Store(true)
	return b, nil
}

// Transport returns "nats" or "memory".
func (b *Bus) Transport() string { return b.transport }

// Connected reports whether the transport currently has a connection.
func (b *Bus) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed && b.connected.Load()
}

// Publish sends payload on topic through the circuit breaker.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte, metadata map[string]string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	for k, v := range metadata {
		msg.Metadata.Set(k, v)
	}

	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.publisher.Publish(topic, msg)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.RealtimePublished.WithLabelValues(topic).Inc()
	return nil
}

// Subscribe returns the messages of topic until ctx is canceled. Callers
// must Ack every message.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return ch, nil
}

// BreakerState reports the publish breaker state.
func (b *Bus) BreakerState() string {
	return b.cb.State().String()
}

// Close shuts down the publisher and subscriber. Open subscriptions end.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	// gochannel uses one value for both roles.
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
