// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package middleware provides the infrastructure middleware of the HTTP API.

  - RequestID: X-Request-ID propagation into the response and logging context
  - PrometheusMetrics: request count, latency and in-flight requests, labelled
    by chi route pattern
  - PerformanceMonitor: sliding window of recent requests with per-endpoint
    percentiles and slow request logging

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(perfMon.Middleware)

The response writer wrappers forward http.Hijacker and http.Flusher, so
the websocket endpoint can sit behind every middleware here.
*/
package middleware
