// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package search turns raw keystrokes into debounced group searches and drives
the paginated explore feed.

A Debouncer holds the immediate value and fires only after the input has
been quiet for the configured period. A Searcher wires a Debouncer to the
onSearchGroups action and writes the SearchState slot of a store.Store:

  - empty to non-empty debounced value: one fetch
  - non-empty to empty: results cleared at once, no fetch
  - non-empty to a different non-empty value: a new fetch

Every fetch and clear takes the next sequence number. A response is
applied only when no higher-numbered write has been applied before it, so a
slow response for an old query never overwrites a newer one.

An Explorer appends onGetExploreGroup pages to the ExplorePages slot.
Reset starts a new term and discards in-flight pages for the old one.

Both types run their fetches under a lifetime context. After Close no
further writes reach the store.
*/
package search
