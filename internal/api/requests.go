// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/models"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 32 << 20
	maxUploadFiles   = 20
)

// SettingsRequest is the JSON body of a settings update. Document, when
// present, wins over Description.
type SettingsRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Document    json.RawMessage `json:"document,omitempty"`
}

// GalleryRequest is the JSON body of a gallery add without images.
type GalleryRequest struct {
	VideoURL string `json:"videoUrl"`
}

// DomainRequest is the body of a custom domain add.
type DomainRequest struct {
	Domain string `json:"domain" validate:"required"`
}

// MessageRequest is the body of a chat send.
type MessageRequest struct {
	Body string `json:"body"`
}

// DevTokenRequest asks for a development bearer token.
type DevTokenRequest struct {
	UserID string `json:"userId" validate:"required,max=128"`
	Name   string `json:"name" validate:"omitempty,max=100"`
}

// ExploreRequest holds the explore query parameters.
type ExploreRequest struct {
	Term string `validate:"max=200"`
	Page int    `validate:"min=0,max=10000"`
}

// SearchRequest holds the search query parameters.
type SearchRequest struct {
	Query string            `validate:"required,max=200"`
	Kind  models.SearchKind `validate:"oneof=GROUPS POSTS"`
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart parses a size-limited multipart body.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid multipart body: %w", err)
	}
	return nil
}

// formFiles reads every file under field into memory, in form order. The
// bodies are buffered so uploads can run after the request body closes.
func formFiles(r *http.Request, field string) ([]backend.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) > maxUploadFiles {
		return nil, fmt.Errorf("at most %d files per request", maxUploadFiles)
	}
	files := make([]backend.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFormFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// formFile returns the single file under field, or nil.
func formFile(r *http.Request, field string) (*backend.File, error) {
	files, err := formFiles(r, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	if len(files) > 1 {
		return nil, fmt.Errorf("only one %s file allowed", field)
	}
	return &files[0], nil
}

func readFormFile(fh *multipart.FileHeader) (backend.File, error) {
	src, err := fh.Open()
	if err != nil {
		return backend.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return backend.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return backend.File{Name: fh.Filename, ContentType: contentType, Body: bytes.NewReader(data)}, nil
}

// getIntParam returns the integer query parameter key or def.
func getIntParam(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
