// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package authz

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/auth"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/models"
)

// GroupParam is the chi URL parameter holding the group ID.
const GroupParam = "id"

// Authorizer is satisfied by *Service.
type Authorizer interface {
	CanAccess(ctx context.Context, userID, groupID, object, action string) (bool, error)
}

// Middleware provides group authorization for chi routes.
type Middleware struct {
	authorizer Authorizer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(authorizer Authorizer) *Middleware {
	return &Middleware{authorizer: authorizer}
}

// Require allows the request only if the authenticated user may perform
// action on object in the group named by the {id} route parameter.
//
//	r.With(authzMW.Require(authz.ObjectSettings, authz.ActionWrite)).Post("/settings", h.UpdateSettings)
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return m.require(object, action, nil)
}

// RequireOrMissing is Require, except that a group the backend does not
// know is handed to onMissing instead of being answered with 404. Routes
// that answer an unknown group with their own response (the settings page
// redirects to group creation) use it.
func (m *Middleware) RequireOrMissing(object, action string, onMissing http.Handler) func(http.Handler) http.Handler {
	return m.require(object, action, onMissing)
}

func (m *Middleware) require(object, action string, onMissing http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			groupID := chi.URLParam(r, GroupParam)
			userID := auth.UserIDFromContext(r.Context())

			allowed, err := m.authorizer.CanAccess(r.Context(), userID, groupID, object, action)
			switch {
			case errors.Is(err, ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			case errors.Is(err, ErrGroupNotFound) && onMissing != nil:
				onMissing.ServeHTTP(w, r)
				return
			case errors.Is(err, ErrGroupNotFound):
				writeError(w, http.StatusNotFound, "GROUP_NOT_FOUND", "group not found")
				return
			case err != nil:
				logging.Ctx(r.Context()).Error().Err(err).Str("group_id", groupID).Msg("Authorization error")
				writeError(w, http.StatusBadGateway, "BACKEND_UNAVAILABLE", "could not resolve group roles")
				return
			case !allowed:
				writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}
