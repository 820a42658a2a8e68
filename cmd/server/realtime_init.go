// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/realtime"
	"github.com/tomtom215/grouphub/internal/supervisor"
	"github.com/tomtom215/grouphub/internal/supervisor/services"
)

// RealtimeComponents is the pub/sub transport and, in embedded mode, the
// NATS server it connects to.
type RealtimeComponents struct {
	Bus    *realtime.Bus
	server *realtime.EmbeddedServer
}

// InitRealtime starts the embedded NATS server when configured and opens
// the bus.
func InitRealtime(cfg *config.Config) (*RealtimeComponents, error) {
	rc := &RealtimeComponents{}
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())

	var url string
	if cfg.Realtime.Transport != realtime.TransportMemory && cfg.Realtime.EmbeddedServer {
		server, err := realtime.NewEmbeddedServer(cfg.Realtime.Host, cfg.Realtime.Port)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		rc.server = server
		url = server.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	bus, err := realtime.New(cfg.Realtime, url, logger)
	if err != nil {
		if rc.server != nil {
			_ = rc.server.Shutdown(context.Background())
		}
		return nil, fmt.Errorf("open realtime bus: %w", err)
	}
	rc.Bus = bus

	logging.Info().
		Str("transport", bus.Transport()).
		Str("presence_channel", cfg.Realtime.PresenceChannel).
		Str("changes_channel", cfg.Realtime.ChangesChannel).
		Msg("Realtime bus ready")
	return rc, nil
}

// AddToSupervisor registers teardown of the bus, then the server, with
// the transport layer.
func (rc *RealtimeComponents) AddToSupervisor(tree *supervisor.SupervisorTree, cfg *config.Config) {
	tree.AddTransportService(services.NewTeardownService("realtime-bus", cfg.Server.ShutdownTimeout, services.Closer(rc.Bus.Close)))
	if rc.server != nil {
		tree.AddTransportService(services.NewTeardownService("nats-server", cfg.Server.ShutdownTimeout, rc.server.Shutdown))
	}
}
