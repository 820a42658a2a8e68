// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package cache provides the query cache used by the settings and domain
components.

Entries expire after a TTL. Writers never patch cached values; they
invalidate the key (or every key under a tag) so the next read refetches.

Keys are built from a tag and parameters:

	cache.Key("group-info", groupID)    // "group-info:<id>"
	c.InvalidatePrefix("group-info")    // drops every group-info entry

Fetch is the read-through helper:

	cfg, cached, err := cache.Fetch(ctx, c, key, func(ctx context.Context) (*models.DomainConfig, error) {
	    return load(ctx)
	})
*/
package cache
