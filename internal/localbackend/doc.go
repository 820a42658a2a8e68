// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

// Package localbackend implements the server actions on SQLite for
// self-hosted and development deployments, with a disk-backed uploader.
//
// Message inserts and deletes are published to a ChangePublisher so chat
// feeds on every instance see them, the same as with the hosted backend's
// change feed.
package localbackend
