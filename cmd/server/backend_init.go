// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/grouphub/internal/api"
	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/localbackend"
	"github.com/tomtom215/grouphub/internal/logging"
)

// BackendComponents are the server actions and uploader selected by
// BACKEND_MODE.
type BackendComponents struct {
	Actions  backend.Actions
	Uploader backend.Uploader
	// Breaker is nil in standalone mode.
	Breaker api.BreakerReporter
	db      *sql.DB
}

// InitBackend builds the remote HTTP client or the standalone SQLite
// backend. Standalone writes to the messages table are published on
// changes so chat feeds see them.
func InitBackend(ctx context.Context, cfg *config.Config, changes localbackend.ChangePublisher) (*BackendComponents, error) {
	if cfg.Backend.Mode == config.BackendModeRemote {
		client := backend.NewHTTPClient(cfg.Backend)
		logging.Info().Str("url", cfg.Backend.URL).Msg("Using remote backend")
		return &BackendComponents{
			Actions:  client,
			Uploader: backend.NewHTTPUploader(cfg.Backend),
			Breaker:  client,
		}, nil
	}

	db, err := localbackend.OpenDB(cfg.Backend.SQLitePath)
	if err != nil {
		return nil, err
	}
	uploader, err := localbackend.NewDiskUploader(cfg.Backend.UploadDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	local := localbackend.New(db, changes)

	if cfg.Backend.SeedPath != "" {
		n, err := local.SeedFromFile(ctx, cfg.Backend.SeedPath)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed standalone backend: %w", err)
		}
		logging.Info().Int("groups", n).Str("path", cfg.Backend.SeedPath).Msg("Standalone backend seeded")
	}

	logging.Info().
		Str("sqlite_path", cfg.Backend.SQLitePath).
		Str("upload_dir", cfg.Backend.UploadDir).
		Msg("Using standalone backend")
	return &BackendComponents{Actions: local, Uploader: uploader, db: db}, nil
}

// Close releases the standalone database.
func (bc *BackendComponents) Close() error {
	if bc.db == nil {
		return nil
	}
	return bc.db.Close()
}
