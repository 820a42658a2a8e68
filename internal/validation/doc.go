// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

// Package validation wraps go-playground/validator with Grouphub rules.
//
// Custom tags:
//   - fieldtag: value is a known settings FieldTag (NAME, ICON, ...)
//   - embedurl: value is an absolute https URL (gallery video embeds)
//
// Field names in errors follow the json struct tag so they match request bodies.
package validation
