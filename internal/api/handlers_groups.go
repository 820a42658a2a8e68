// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/grouphub/internal/authz"
	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/customdomain"
	"github.com/tomtom215/grouphub/internal/gallery"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/presence"
	"github.com/tomtom215/grouphub/internal/settings"
	"github.com/tomtom215/grouphub/internal/validation"
)

// SettingsView is the data of GET settings.
type SettingsView struct {
	Group   interface{}   `json:"group"`
	Form    settings.Form `json:"form"`
	Pending bool          `json:"pending"`
}

// GetSettings loads the group into an editable form.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, authz.GroupParam)
	m := beginMutation(r)

	group, form, err := h.Settings.Load(m.ctx, groupID)
	if errors.Is(err, settings.ErrGroupNotFound) {
		NewResponseWriter(w, r).ErrorWithData(http.StatusNotFound, ErrCodeGroupNotFound, "group not found", m.response(nil))
		return
	}
	if err != nil {
		NewResponseWriter(w, r).BackendError(backend.ActionGetGroupInfo, err)
		return
	}

	NewResponseWriter(w, r).Success(SettingsView{
		Group:   group,
		Form:    form,
		Pending: h.Settings.Pending(groupID),
	})
}

// UpdateSettings submits the changed fields. JSON bodies carry text fields
// only; multipart bodies may add "thumbnail" and "icon" files.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, authz.GroupParam)
	rw := NewResponseWriter(w, r)

	form, err := h.parseSettingsForm(w, r)
	if err != nil {
		respondRequestError(rw, err)
		return
	}
	if verr := validation.ValidateStruct(form); verr != nil {
		rw.ValidationError(verr)
		return
	}

	m := beginMutation(r)
	result, err := h.Settings.Submit(m.ctx, groupID, form)
	if err != nil {
		respondMutationError(rw, err, m.response(result))
		return
	}
	rw.Success(m.response(result))
}

func (h *Handler) parseSettingsForm(w http.ResponseWriter, r *http.Request) (settings.Form, error) {
	var form settings.Form

	if isMultipart(r) {
		if err := parseMultipart(w, r); err != nil {
			return form, err
		}
		form.Name = r.FormValue("name")
		switch {
		case r.FormValue("document") != "":
			if err := form.SetDocument([]byte(r.FormValue("document"))); err != nil {
				return form, err
			}
		case r.FormValue("description") != "":
			if err := form.SetDescription(r.FormValue("description")); err != nil {
				return form, err
			}
		}
		var err error
		if form.Thumbnail, err = formFile(r, "thumbnail"); err != nil {
			return form, err
		}
		if form.Icon, err = formFile(r, "icon"); err != nil {
			return form, err
		}
		return form, nil
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return form, ErrUnsupportedMediaType
	}
	var req SettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return form, err
	}
	form.Name = req.Name
	switch {
	case len(req.Document) > 0 && string(req.Document) != "null":
		if err := form.SetDocument(req.Document); err != nil {
			return form, err
		}
	case req.Description != nil:
		if err := form.SetDescription(*req.Description); err != nil {
			return form, err
		}
	}
	return form, nil
}

// AddGallery adds an optional video embed and any number of images.
func (h *Handler) AddGallery(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, authz.GroupParam)
	rw := NewResponseWriter(w, r)

	var req gallery.AddRequest
	if isMultipart(r) {
		if err := parseMultipart(w, r); err != nil {
			respondRequestError(rw, err)
			return
		}
		req.VideoURL = strings.TrimSpace(r.FormValue("videoUrl"))
		images, err := formFiles(r, "images")
		if err != nil {
			rw.BadRequest(err.Error())
			return
		}
		req.Images = images
	} else {
		var body GalleryRequest
		if err := decodeJSON(w, r, &body); err != nil {
			respondRequestError(rw, err)
			return
		}
		req.VideoURL = strings.TrimSpace(body.VideoURL)
	}

	m := beginMutation(r)
	result, err := h.Gallery.Add(m.ctx, groupID, req)
	if err != nil {
		respondMutationError(rw, err, m.response(result))
		return
	}
	rw.Created(m.response(result))
}

// RemoveGallery deletes one gallery entry.
func (h *Handler) RemoveGallery(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, authz.GroupParam)
	mediaID := chi.URLParam(r, "mediaId")

	m := beginMutation(r)
	if err := h.Gallery.Remove(m.ctx, groupID, mediaID); err != nil {
		respondMutationError(NewResponseWriter(w, r), err, m.response(nil))
		return
	}
	NewResponseWriter(w, r).Success(m.response(nil))
}

// GetDomain returns the group's custom domain config.
func (h *Handler) GetDomain(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, authz.GroupParam)

	cfg, err := h.Domains.Get(r.Context(), groupID)
	if err != nil {
		var statusErr *customdomain.StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			NewResponseWriter(w, r).Error(http.StatusNotFound, ErrCodeNotFound, "domain config not found")
			return
		}
		NewResponseWriter(w, r).BackendError(backend.ActionGetDomainConfig, err)
		return
	}
	NewResponseWriter(w, r).Success(cfg)
}

// AddDomain attaches a custom domain and returns the refreshed config.
func (h *Handler) AddDomain(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, authz.GroupParam)
	rw := NewResponseWriter(w, r)

	var req DomainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondRequestError(rw, err)
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	m := beginMutation(r)
	cfg, err := h.Domains.Add(m.ctx, groupID, req.Domain)
	if err != nil {
		respondMutationError(rw, err, m.response(cfg))
		return
	}
	rw.Success(m.response(cfg))
}

// Members lists the group's members with their online flag.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, authz.GroupParam)

	var online []models.OnlineMember
	if h.Online != nil {
		online = h.Online.OnlineMembers()
	}

	members, err := h.Roster.Members(r.Context(), groupID, online)
	if err != nil {
		var statusErr *presence.StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			NewResponseWriter(w, r).Error(http.StatusNotFound, ErrCodeGroupNotFound, "group not found")
			return
		}
		NewResponseWriter(w, r).BackendError(backend.ActionGetAllGroupMembers, err)
		return
	}
	NewResponseWriter(w, r).Success(members)
}

func respondRequestError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrUnsupportedMediaType):
		rw.Error(http.StatusUnsupportedMediaType, ErrCodeBadRequest, "use application/json or multipart/form-data")
	default:
		rw.BadRequest(err.Error())
	}
}

// respondMutationError maps component errors to statuses. The mutation
// data still goes out so the client can show its notifications.
func respondMutationError(rw *ResponseWriter, err error, data MutationResponse) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		rw.ValidationError(verr)
		return
	}

	var (
		galleryStatus *gallery.StatusError
		domainStatus  *customdomain.StatusError
	)
	switch {
	case errors.Is(err, settings.ErrPending), errors.Is(err, gallery.ErrPending):
		rw.ErrorWithData(http.StatusConflict, ErrCodeConflict, err.Error(), data)
	case errors.Is(err, settings.ErrEmptyForm), errors.Is(err, gallery.ErrNothingToAdd):
		rw.ErrorWithData(http.StatusBadRequest, ErrCodeBadRequest, err.Error(), data)
	case errors.As(err, &galleryStatus), errors.As(err, &domainStatus):
		rw.ErrorWithData(http.StatusUnprocessableEntity, ErrCodeRejected, err.Error(), data)
	default:
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Mutation failed")
		rw.ErrorWithData(http.StatusBadGateway, ErrCodeBackendFailed, "backend unavailable", data)
	}
}
