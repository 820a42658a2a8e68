// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

// Package settings binds a group's editable fields to a Form and saves a
// Form back through the onUpDateGroupSettings action, one field per call
// in the order thumbnail, icon, name, description, JSON document, rendered
// markup. Each field commits on its own. The run ends with one summary
// notification: success when every field saved, a warning naming the
// failed fields otherwise.
package settings
