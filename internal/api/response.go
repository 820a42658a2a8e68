// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
	"github.com/tomtom215/grouphub/internal/validation"
)

// MutationResponse is the data of every write endpoint: the component
// result plus the notifications raised while producing it.
type MutationResponse struct {
	Result        interface{}           `json:"result,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
	Redirect      string                `json:"redirect,omitempty"`
}

// ResponseWriter writes the standard envelope for one request.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter creates a new response writer.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, startTime: time.Now()}
}

// Success writes a 200 response with data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.write(http.StatusOK, data, nil, false)
}

// Cached writes a 200 response marked as served from cache.
func (rw *ResponseWriter) Cached(data interface{}, cached bool) {
	rw.write(http.StatusOK, data, nil, cached)
}

// Created writes a 201 response with data.
func (rw *ResponseWriter) Created(data interface{}) {
	rw.write(http.StatusCreated, data, nil, false)
}

// Error writes an error response with the given status code.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.ErrorWithDetails(status, code, message, nil)
}

// ErrorWithDetails writes an error response with additional details.
func (rw *ResponseWriter) ErrorWithDetails(status int, code, message string, details map[string]interface{}) {
	rw.write(status, nil, &models.APIError{Code: code, Message: message, Details: details}, false)
}

// ErrorWithData writes an error response that still carries data, used
// when a write failed but produced notifications.
func (rw *ResponseWriter) ErrorWithData(status int, code, message string, data interface{}) {
	rw.write(status, data, &models.APIError{Code: code, Message: message}, false)
}

// BadRequest writes a 400 Bad Request error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// ValidationError writes a 400 error with per-field details.
func (rw *ResponseWriter) ValidationError(verr *validation.RequestValidationError) {
	rw.write(http.StatusBadRequest, nil, verr.ToAPIError(), false)
}

// BackendError writes a 502 error for a failed server action.
func (rw *ResponseWriter) BackendError(action string, err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Str("action", sanitizeLogValue(action)).Msg("Backend call failed")
	rw.Error(http.StatusBadGateway, ErrCodeBackendFailed, "backend unavailable")
}

func (rw *ResponseWriter) write(status int, data interface{}, apiErr *models.APIError, cached bool) {
	state := "success"
	if apiErr != nil {
		state = "error"
	}
	resp := models.APIResponse{
		Status: state,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(rw.r.Context()),
			QueryTimeMS: time.Since(rw.startTime).Milliseconds(),
			Cached:      cached,
		},
		Error: apiErr,
	}

	body, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		rw.w.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.Header().Set("Cache-Control", "no-store")
	rw.w.WriteHeader(status)
	if _, err := rw.w.Write(body); err != nil {
		logging.Ctx(rw.r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// sanitizeLogValue strips control characters from user-supplied values
// before they reach the log.
func sanitizeLogValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
