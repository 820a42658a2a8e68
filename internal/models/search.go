// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package models

// SearchKind selects what onSearchGroups searches.
type SearchKind string

const (
	SearchKindGroups SearchKind = "GROUPS"
	SearchKindPosts  SearchKind = "POSTS"
)

// SearchState is the debounced search view pushed to a session.
type SearchState struct {
	Query     string         `json:"query"`
	Debounced string         `json:"debounced"`
	Loading   bool           `json:"loading"`
	Results   []GroupSummary `json:"results"`
	Seq       uint64         `json:"seq"`
}

// ExplorePage is one infinite-scroll page of the explore feed.
type ExplorePage struct {
	Term   string         `json:"term"`
	Page   int            `json:"page"`
	Groups []GroupSummary `json:"groups"`
}
