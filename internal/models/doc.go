// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package models defines the data structures shared across Grouphub.

Key Components:

  - Group: a tenant workspace with its editable settings and media gallery
  - FieldTag: the single-field update keys accepted by the settings action
  - Media: tagged gallery entry (image storage reference or embed URL)
  - Message and ChangeEvent: chat rows and their realtime change notifications
  - PresencePayload and PresenceSnapshot: the "tracking" channel payloads
  - DomainConfig: custom domain record and verification status
  - SearchState and ExplorePage: debounced search and infinite-scroll state
  - Action results: the {status, ...} envelopes returned by server actions

Status codes inside action results follow HTTP semantics (200 success,
404 not found, 4xx/5xx failures) because the hosted backend echoes them.
*/
package models
