// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

//go:build integration

// Package testinfra starts real dependencies in containers for integration
// tests. It is only compiled with the integration build tag:
//
//	go test -tags integration ./internal/realtime/...
//
// Tests call SkipIfNoDocker first so they pass on machines without Docker.
package testinfra
