// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/grouphub/internal/auth"
	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/cache"
	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/customdomain"
	"github.com/tomtom215/grouphub/internal/gallery"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/middleware"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
	"github.com/tomtom215/grouphub/internal/presence"
	"github.com/tomtom215/grouphub/internal/session"
	"github.com/tomtom215/grouphub/internal/settings"
	ws "github.com/tomtom215/grouphub/internal/websocket"
)

// OnlineSource reports who is online on the tracking channel.
type OnlineSource interface {
	OnlineMembers() []models.OnlineMember
}

// HealthProbe reports the state of an external dependency.
type HealthProbe interface {
	Connected() bool
}

// CacheStats is satisfied by *cache.Cache.
type CacheStats interface {
	GetStats() cache.Stats
	HitRate() float64
}

// MessageDeleter is implemented by backends that can delete a sent chat
// message. The standalone backend does; the remote action set has no
// delete action.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, senderID, messageID string) (models.StatusResult, error)
}

// BreakerReporter exposes a circuit breaker state name.
type BreakerReporter interface {
	BreakerState() string
}

// Deps are the collaborators of the HTTP handlers. Settings, Gallery and
// Domains must be built with a notify.Scoped notifier so the notifications
// of a request reach its response.
type Deps struct {
	Config   *config.Config
	Actions  backend.Actions
	Settings *settings.Synchronizer
	Gallery  *gallery.Mutator
	Domains  *customdomain.Manager
	Roster   *presence.Roster
	Online   OnlineSource
	Sessions *session.Manager
	Hub      *ws.Hub
	JWT      *auth.JWTManager
	Realtime HealthProbe
	Breaker  BreakerReporter
	PerfMon  *middleware.PerformanceMonitor
	Cache    CacheStats
	Version  string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, request scoping
//   - handlers_health.go: health and performance endpoints
//   - handlers_groups.go: settings, gallery, domain and members endpoints
//   - handlers_chat.go: chat, explore and search endpoints
//   - handlers_ws.go: websocket session endpoint
//   - handlers_auth.go: development token endpoint
type Handler struct {
	Deps
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	if deps.PerfMon == nil {
		deps.PerfMon = middleware.NewPerformanceMonitor(1000, middleware.DefaultSlowThreshold)
	}
	return &Handler{Deps: deps, startTime: time.Now()}
}

// redirectKey carries the per-request redirect slot.
type redirectKey struct{}

type redirectSlot struct {
	mu   sync.Mutex
	path string
}

// Navigator returns a settings.Navigator that records the redirect for the
// current request, so the response can tell the client where to go.
func Navigator() settings.Navigator {
	return settings.NavigatorFunc(func(ctx context.Context, path string) {
		if slot, ok := ctx.Value(redirectKey{}).(*redirectSlot); ok {
			slot.mu.Lock()
			slot.path = path
			slot.mu.Unlock()
		}
	})
}

// mutation scopes the notifications and redirect of one write request.
type mutation struct {
	ctx      context.Context
	recorder *notify.Recorder
	redirect *redirectSlot
}

func beginMutation(r *http.Request) *mutation {
	m := &mutation{recorder: &notify.Recorder{}, redirect: &redirectSlot{}}
	ctx := notify.WithNotifier(r.Context(), m.recorder)
	m.ctx = context.WithValue(ctx, redirectKey{}, m.redirect)
	return m
}

func (m *mutation) response(result interface{}) MutationResponse {
	m.redirect.mu.Lock()
	redirect := m.redirect.path
	m.redirect.mu.Unlock()
	return MutationResponse{
		Result:        result,
		Notifications: m.recorder.All(),
		Redirect:      redirect,
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Browsers
// always send Origin; a missing one is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if h.Config == nil {
		return true
	}
	for _, allowed := range h.Config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
