// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/grouphub/internal/models"
)

const breakerOpen = "open"

// Health reports the service state. It is degraded when the realtime
// transport is down or the backend circuit is open; it still answers 200
// so monitoring can read the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.healthStatus())
}

func (h *Handler) healthStatus() models.HealthStatus {
	realtimeUp := h.Realtime != nil && h.Realtime.Connected()

	circuit := "n/a"
	if h.Breaker != nil {
		circuit = h.Breaker.BreakerState()
	}

	mode := ""
	if h.Config != nil {
		mode = h.Config.Backend.Mode
	}

	sessions := 0
	if h.Sessions != nil {
		sessions = h.Sessions.Count()
	}

	status := "healthy"
	if !realtimeUp || circuit == breakerOpen {
		status = "degraded"
	}

	return models.HealthStatus{
		Status:         status,
		Version:        h.Version,
		BackendMode:    mode,
		RealtimeUp:     realtimeUp,
		CircuitState:   circuit,
		ActiveSessions: sessions,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
}

// HealthLive answers as long as the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady answers 503 until the realtime transport is connected.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	health := h.healthStatus()
	if !health.RealtimeUp {
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "realtime transport not connected")
		return
	}
	NewResponseWriter(w, r).Success(map[string]string{"status": "ready"})
}

// Performance returns per-endpoint latency statistics.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	n, err := getIntParam(r, "recent", 20)
	if err != nil || n < 0 || n > 1000 {
		NewResponseWriter(w, r).BadRequest("recent must be an integer between 0 and 1000")
		return
	}
	out := map[string]interface{}{
		"endpoints": h.PerfMon.Stats(),
		"recent":    h.PerfMon.Recent(n),
	}
	if h.Cache != nil {
		stats := h.Cache.GetStats()
		out["cache"] = CacheReport{
			Hits:          stats.Hits,
			Misses:        stats.Misses,
			Invalidations: stats.Invalidations,
			Keys:          stats.TotalKeys,
			HitRate:       h.Cache.HitRate(),
		}
	}
	NewResponseWriter(w, r).Success(out)
}

// CacheReport summarizes the query cache in the performance report.
type CacheReport struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Invalidations int64   `json:"invalidations"`
	Keys          int64   `json:"keys"`
	HitRate       float64 `json:"hitRate"`
}
