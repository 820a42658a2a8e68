// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
)

// HTTPUploader posts files as multipart/form-data to the upload service
// and returns the stored content id from its {uuid} reply.
type HTTPUploader struct {
	url    string
	apiKey string
	http   *http.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPUploader creates an uploader for cfg.UploadURL.
func NewHTTPUploader(cfg config.BackendConfig) *HTTPUploader {
	return &HTTPUploader{
		url:    cfg.UploadURL,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: cfg.Timeout},
		cb:     newBreaker("backend-upload", cfg.CircuitBreaker),
	}
}

// Upload sends f and returns the id of the stored content. Every failure
// wraps ErrUploadFailed.
func (u *HTTPUploader) Upload(ctx context.Context, f File) (models.UploadResult, error) {
	start := time.Now()
	body, err := u.cb.Execute(func() ([]byte, error) {
		return u.post(ctx, f)
	})
	metrics.RecordBackendCall("upload", time.Since(start), err)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: %s: %w", ErrUploadFailed, f.Name, breakerErr(err))
	}

	var out models.UploadResult
	if err := json.Unmarshal(body, &out); err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: decode reply: %w", ErrUploadFailed, err)
	}
	if out.UUID == "" {
		return models.UploadResult{}, fmt.Errorf("%w: reply has no uuid", ErrUploadFailed)
	}
	return out, nil
}

func (u *HTTPUploader) post(ctx context.Context, f File) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	if _, err := io.Copy(part, f.Body); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &TransportError{Action: "upload", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}

var _ Uploader = (*HTTPUploader)(nil)
