// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grouphub_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grouphub_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// WebSocket Metrics
	WSSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grouphub_ws_sessions_active",
			Help: "Number of connected websocket sessions",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grouphub_ws_messages_dropped_total",
			Help: "Outbound websocket messages dropped because a client queue was full",
		},
	)

	// Search Metrics
	SearchFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_search_fetches_total",
			Help: "Debounced search and explore fetches issued",
		},
		[]string{"feed"}, // search, explore
	)

	StaleResponsesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_stale_responses_dropped_total",
			Help: "Responses discarded because a newer request was already applied",
		},
		[]string{"feed"},
	)

	// Presence Metrics
	PresenceOnlineMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grouphub_presence_online_members",
			Help: "Members in the most recent presence sync seen by this instance",
		},
	)

	PresenceSyncs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grouphub_presence_syncs_total",
			Help: "Presence sync events reduced into online-member snapshots",
		},
	)

	// Chat Metrics
	ChatEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_chat_events_total",
			Help: "Change-feed events handled by chat feeds",
		},
		[]string{"event", "outcome"}, // outcome: applied, buffered, duplicate, filtered
	)

	// Settings and Gallery Metrics
	SettingsFieldUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_settings_field_updates_total",
			Help: "Group settings single-field updates by tag and outcome",
		},
		[]string{"field", "outcome"},
	)

	GalleryUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_gallery_uploads_total",
			Help: "Gallery entries committed or failed",
		},
		[]string{"kind", "outcome"},
	)

	DomainAdds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_domain_adds_total",
			Help: "Custom domain add attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_authz_decisions_total",
			Help: "Group authorization decisions by object, action and result",
		},
		[]string{"object", "action", "result"}, // result: allowed, denied
	)

	AuthzRoleSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_authz_role_syncs_total",
			Help: "Group role reloads from the backend by outcome",
		},
		[]string{"outcome"},
	)

	// Backend Metrics
	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grouphub_backend_call_duration_seconds",
			Help:    "Duration of server action calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	BackendCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_backend_call_errors_total",
			Help: "Server action calls that failed at the transport level",
		},
		[]string{"action"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grouphub_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Realtime Metrics
	RealtimePublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_realtime_published_total",
			Help: "Messages published on realtime channels",
		},
		[]string{"channel"},
	)

	RealtimeReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_realtime_received_total",
			Help: "Messages received from realtime channels",
		},
		[]string{"channel"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grouphub_cache_hits_total",
			Help: "Query cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grouphub_cache_misses_total",
			Help: "Query cache misses",
		},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grouphub_cache_invalidations_total",
			Help: "Query cache invalidations by key",
		},
		[]string{"key"},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBackendCall records a server action call and, if err is non-nil, its failure.
func RecordBackendCall(action string, duration time.Duration, err error) {
	BackendCallDuration.WithLabelValues(action).Observe(duration.Seconds())
	if err != nil {
		BackendCallErrors.WithLabelValues(action).Inc()
	}
}

// Outcome converts a boolean success into a metric label.
func Outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
