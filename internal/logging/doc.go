// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

// Package logging provides the zerolog-based global logger used across Grouphub.
//
// Initialize once from main, then log with chained structured fields:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("group_id", id).Msg("settings saved")
//	logging.Ctx(ctx).Warn().Err(err).Msg("upload failed")
//
// Ctx adds the request, correlation, session and user IDs stored in the
// context. NewSlogLogger bridges libraries that expect a *slog.Logger.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated
// event is never written.
package logging
