// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/grouphub/internal/auth"
	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/validation"
)

const (
	receiverParam = "receiverId"
	messageParam  = "messageId"
)

// maxMessageLength bounds one chat message body, in bytes.
const maxMessageLength = 4000

// ChatMessages returns the conversation between the caller and receiverId.
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	receiverID := chi.URLParam(r, receiverParam)
	rw := NewResponseWriter(w, r)

	res, err := h.Actions.GetAllUserMessages(r.Context(), userID, receiverID)
	if err != nil {
		rw.BackendError(backend.ActionGetAllUserMessages, err)
		return
	}
	if res.Status != http.StatusOK && res.Status != 0 {
		rw.Error(http.StatusBadGateway, ErrCodeBackendFailed, fmt.Sprintf("messages fetch returned status %d", res.Status))
		return
	}

	messages := make([]models.Message, 0, len(res.Messages))
	for _, msg := range res.Messages {
		if msg.Involves(userID, receiverID) {
			messages = append(messages, msg)
		}
	}
	rw.Success(messages)
}

// SendChatMessage sends one message from the caller to receiverId. Open
// sessions of both users see it through the change feed.
func (h *Handler) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	receiverID := chi.URLParam(r, receiverParam)
	rw := NewResponseWriter(w, r)

	var req MessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondRequestError(rw, err)
		return
	}
	body := strings.TrimSpace(req.Body)
	if verr := validation.ValidateVar("body", body, fmt.Sprintf("required,max=%d", maxMessageLength)); verr != nil {
		rw.ValidationError(verr)
		return
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		Message:    body,
		CreatedAt:  time.Now().UTC(),
		SenderID:   userID,
		ReceiverID: receiverID,
	}
	res, err := h.Actions.SendMessage(r.Context(), userID, receiverID, msg.ID, body)
	if err != nil {
		rw.BackendError(backend.ActionSendMessage, err)
		return
	}
	if !res.OK() {
		rw.Error(http.StatusUnprocessableEntity, ErrCodeRejected, fmt.Sprintf("message rejected with status %d", res.Status))
		return
	}
	rw.Created(msg)
}

// DeleteChatMessage deletes one message the caller sent. Open chats see
// the removal through the change feed.
func (h *Handler) DeleteChatMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	deleter, ok := h.Actions.(MessageDeleter)
	if !ok {
		rw.Error(http.StatusNotImplemented, ErrCodeNotImplemented, "the backend does not support deleting messages")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	messageID := chi.URLParam(r, messageParam)
	if verr := validation.ValidateVar("messageId", messageID, "required,max=100"); verr != nil {
		rw.ValidationError(verr)
		return
	}

	res, err := deleter.DeleteMessage(r.Context(), userID, messageID)
	if err != nil {
		rw.BackendError("onDeleteMessage", err)
		return
	}
	switch {
	case res.Status == http.StatusNotFound:
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "message not found")
	case !res.OK():
		rw.Error(http.StatusUnprocessableEntity, ErrCodeRejected, fmt.Sprintf("delete rejected with status %d", res.Status))
	default:
		rw.Success(map[string]string{"id": messageID})
	}
}

// Explore returns one page of the explore feed.
func (h *Handler) Explore(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	page, err := getIntParam(r, "page", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req := ExploreRequest{Term: strings.TrimSpace(r.URL.Query().Get("term")), Page: page}
	if verr := validation.ValidateStruct(req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	res, err := h.Actions.GetExploreGroup(r.Context(), req.Term, req.Page)
	if err != nil {
		rw.BackendError(backend.ActionGetExploreGroup, err)
		return
	}
	rw.Success(models.ExplorePage{Term: req.Term, Page: req.Page, Groups: res.Groups})
}

// Search runs one group or post search without debouncing.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind := models.SearchKind(strings.ToUpper(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = models.SearchKindGroups
	}
	req := SearchRequest{Query: strings.TrimSpace(r.URL.Query().Get("q")), Kind: kind}
	if verr := validation.ValidateStruct(req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	res, err := h.Actions.SearchGroups(r.Context(), req.Kind, req.Query)
	if err != nil {
		rw.BackendError(backend.ActionSearchGroups, err)
		return
	}
	rw.Success(res.Groups)
}
