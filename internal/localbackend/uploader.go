// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package localbackend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/models"
)

// MaxUploadSize bounds a single stored file.
const MaxUploadSize = 10 << 20

// DiskUploader stores uploads as files named by their uuid.
type DiskUploader struct {
	dir string
}

// NewDiskUploader creates dir if needed.
func NewDiskUploader(dir string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskUploader{dir: dir}, nil
}

func (u *DiskUploader) Upload(ctx context.Context, f backend.File) (models.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: %w", backend.ErrUploadFailed, err)
	}

	id := uuid.NewString()
	path := filepath.Join(u.dir, id)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: %w", backend.ErrUploadFailed, err)
	}

	n, err := io.Copy(out, io.LimitReader(f.Body, MaxUploadSize+1))
	closeErr := out.Close()
	if err == nil && n > MaxUploadSize {
		err = fmt.Errorf("%s exceeds %d bytes", f.Name, MaxUploadSize)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return models.UploadResult{}, fmt.Errorf("%w: %w", backend.ErrUploadFailed, err)
	}
	return models.UploadResult{UUID: id}, nil
}

// Open returns the stored content for id.
func (u *DiskUploader) Open(id string) (*os.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New("invalid upload id")
	}
	return os.Open(filepath.Join(u.dir, id))
}

var _ backend.Uploader = (*DiskUploader)(nil)
