// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/grouphub/internal/auth"
	"github.com/tomtom215/grouphub/internal/authz"
	"github.com/tomtom215/grouphub/internal/middleware"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	authn         *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
	devTokens     bool
}

// NewRouter creates a router. devTokens routes the development token
// endpoint and must stay false in production.
func NewRouter(handler *Handler, authn *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware, devTokens bool) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		authn:         authn,
		authz:         authzMW,
		chiMiddleware: chiMW,
		devTokens:     devTokens,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.PerfMon.Middleware)
	r.Use(AccessLog())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	if router.devTokens {
		r.With(router.chiMiddleware.RateLimitToken(), APISecurityHeaders()).
			Post("/api/v1/auth/token", h.DevToken)
	}

	// The upgrade must not pass through compression.
	r.With(router.chiMiddleware.RateLimitWebSocket(), router.authn.Authenticate).
		Get("/api/v1/ws", h.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5))
		r.Use(router.authn.Authenticate)

		r.Get("/explore", h.Explore)
		r.Get("/search", h.Search)
		r.Get("/performance", h.Performance)

		r.Route("/chat/{"+receiverParam+"}/messages", func(r chi.Router) {
			r.Get("/", h.ChatMessages)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/", h.SendChatMessage)
			r.With(router.chiMiddleware.RateLimitWrite()).Delete("/{"+messageParam+"}", h.DeleteChatMessage)
		})

		r.Route("/groups/{"+authz.GroupParam+"}", func(r chi.Router) {
			read := func(object string) func(http.Handler) http.Handler {
				return router.authz.Require(object, authz.ActionRead)
			}
			write := func(object string) chi.Middlewares {
				return chi.Middlewares{router.chiMiddleware.RateLimitWrite(), router.authz.Require(object, authz.ActionWrite)}
			}

			settingsPage := http.HandlerFunc(h.GetSettings)
			r.With(router.authz.RequireOrMissing(authz.ObjectSettings, authz.ActionRead, settingsPage)).
				Get("/settings", h.GetSettings)
			r.With(write(authz.ObjectSettings)...).Post("/settings", h.UpdateSettings)

			r.With(write(authz.ObjectGallery)...).Post("/gallery", h.AddGallery)
			r.With(write(authz.ObjectGallery)...).Delete("/gallery/{mediaId}", h.RemoveGallery)

			r.With(read(authz.ObjectDomain)).Get("/domain", h.GetDomain)
			r.With(write(authz.ObjectDomain)...).Post("/domain", h.AddDomain)

			r.With(read(authz.ObjectMembers)).Get("/members", h.Members)
		})
	})

	return r
}
