// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package cache

// Querier is the subset of Cache used by components that read through it
// and invalidate after writes.
type Querier interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Invalidate(key string)
	InvalidatePrefix(prefix string) int
}

var _ Querier = (*Cache)(nil)
