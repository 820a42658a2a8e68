// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/validation"
)

// TokenResponse is the data of the development token endpoint.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DevToken mints a bearer token for any user. It is only routed in
// standalone mode outside production, where no identity provider exists.
func (h *Handler) DevToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req DevTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondRequestError(rw, err)
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	token, err := h.JWT.GenerateToken(req.UserID, req.Name)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to sign development token")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "could not issue token")
		return
	}
	logging.Ctx(r.Context()).Info().Str("user_id", sanitizeLogValue(req.UserID)).Msg("Development token issued")

	ttl := h.Config.Security.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	rw.Created(TokenResponse{Token: token, ExpiresAt: time.Now().Add(ttl).UTC()})
}
