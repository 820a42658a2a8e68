// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package localbackend

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/tomtom215/grouphub/internal/backend"
)

func TestDiskUploader(t *testing.T) {
	t.Parallel()

	u, err := NewDiskUploader(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	res, err := u.Upload(context.Background(), backend.File{Name: "a.png", Body: strings.NewReader("PNG")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	f, err := u.Open(res.UUID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "PNG" {
		t.Errorf("stored content = %q", data)
	}

	if _, err := u.Open("../etc/passwd"); err == nil {
		t.Error("Open should reject non-uuid ids")
	}
}

func TestDiskUploader_CanceledContext(t *testing.T) {
	t.Parallel()

	u, err := NewDiskUploader(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = u.Upload(ctx, backend.File{Name: "a.png", Body: strings.NewReader("PNG")})
	if !errors.Is(err, backend.ErrUploadFailed) || !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
