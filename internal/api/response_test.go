// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return resp
}

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantState  string
		wantCode   string
		wantCached bool
	}{
		{"success", func(rw *ResponseWriter) { rw.Success(map[string]int{"n": 1}) }, http.StatusOK, "success", "", false},
		{"cached", func(rw *ResponseWriter) { rw.Cached([]string{"a"}, true) }, http.StatusOK, "success", "", true},
		{"created", func(rw *ResponseWriter) { rw.Created("x") }, http.StatusCreated, "success", "", false},
		{"bad request", func(rw *ResponseWriter) { rw.BadRequest("nope") }, http.StatusBadRequest, "error", ErrCodeBadRequest, false},
		{"backend", func(rw *ResponseWriter) { rw.BackendError("sendMessage", http.ErrHandlerTimeout) }, http.StatusBadGateway, "error", ErrCodeBackendFailed, false},
		{"error with data", func(rw *ResponseWriter) {
			rw.ErrorWithData(http.StatusConflict, ErrCodeConflict, "busy", MutationResponse{
				Notifications: []notify.Notification{notify.Error("Busy", "try again")},
			})
		}, http.StatusConflict, "error", ErrCodeConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			tt.write(NewResponseWriter(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("Cache-Control = %q", got)
			}
			if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
				t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
			}

			resp := decodeEnvelope(t, rec)
			if resp.Status != tt.wantState || resp.Metadata.Cached != tt.wantCached {
				t.Errorf("envelope = %+v", resp)
			}
			if tt.wantCode == "" && resp.Error != nil {
				t.Errorf("unexpected error %+v", resp.Error)
			}
			if tt.wantCode != "" && (resp.Error == nil || resp.Error.Code != tt.wantCode) {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestErrorWithDataKeepsNotifications(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewResponseWriter(rec, httptest.NewRequest(http.MethodPost, "/", nil)).ErrorWithData(
		http.StatusBadGateway, ErrCodeBackendFailed, "backend unavailable",
		MutationResponse{Notifications: []notify.Notification{notify.Error("Update failed", "Could not update name.")}},
	)

	if !strings.Contains(rec.Body.String(), `"Could not update name."`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"alice", "alice"},
		{"evil\nINFO forged", "evilINFO forged"},
		{"tab\there\x7f", "tabhere"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
