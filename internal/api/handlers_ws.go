// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/grouphub/internal/auth"
	"github.com/tomtom215/grouphub/internal/logging"
	ws "github.com/tomtom215/grouphub/internal/websocket"
)

// WebSocket upgrades the request and binds the connection to a new
// session. Browsers pass the bearer token as ?token= since they cannot
// set headers on the upgrade.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil || h.Sessions == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable")
		return
	}
	userID := auth.UserIDFromContext(r.Context())

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.Hub, conn, userID)
	sess, err := h.Sessions.Open(r.Context(), userID, client)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to open session")
		_ = conn.Close()
		return
	}
	client.SetHandler(sess)

	if !h.Hub.Add(client) {
		sess.Close()
		_ = conn.Close()
		return
	}
	// The request context ends when this handler returns; keep only its values.
	client.Start(context.WithoutCancel(r.Context()))
}
