// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package models

import "sort"

// PresenceMember is the identity published by a tracked client.
type PresenceMember struct {
	UserID string `json:"userid"`
}

// PresencePayload is the tracked payload shape {member:{userid}}.
type PresencePayload struct {
	Member PresenceMember `json:"member"`
}

// PresenceSnapshot maps a tracked client key to the payloads it tracks.
type PresenceSnapshot map[string][]PresencePayload

// Keys returns the snapshot keys in sorted order.
func (s PresenceSnapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the snapshot.
func (s PresenceSnapshot) Clone() PresenceSnapshot {
	out := make(PresenceSnapshot, len(s))
	for k, payloads := range s {
		cp := make([]PresencePayload, len(payloads))
		copy(cp, payloads)
		out[k] = cp
	}
	return out
}

// OnlineMember is one entry of the reduced online-members view.
type OnlineMember struct {
	ID string `json:"id"`
}

// MemberStatus annotates a group member with its presence.
type MemberStatus struct {
	GroupMember
	Online bool `json:"online"`
}
