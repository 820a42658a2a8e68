// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package presence

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/tomtom215/grouphub/internal/models"
)

// MembersFetcher is the onGetAllGroupMembers action.
type MembersFetcher interface {
	GetAllGroupMembers(ctx context.Context, groupID string) (models.MembersResult, error)
}

// StatusError carries a non-success action status.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("members fetch returned status %d", e.Status)
}

// Roster annotates group members with their presence.
type Roster struct {
	members MembersFetcher
}

// NewRoster returns a roster backed by fetcher.
func NewRoster(fetcher MembersFetcher) *Roster {
	return &Roster{members: fetcher}
}

// Members returns the group's members, online ones first, each group
// sorted by display name.
func (r *Roster) Members(ctx context.Context, groupID string, online []models.OnlineMember) ([]models.MemberStatus, error) {
	res, err := r.members.GetAllGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group members: %w", err)
	}
	if res.Status != http.StatusOK {
		return nil, &StatusError{Status: res.Status}
	}

	isOnline := make(map[string]bool, len(online))
	for _, m := range online {
		isOnline[m.ID] = true
	}

	out := make([]models.MemberStatus, len(res.Members))
	for i, m := range res.Members {
		out[i] = models.MemberStatus{GroupMember: m, Online: isOnline[m.UserID]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Online != out[j].Online {
			return out[i].Online
		}
		return out[i].DisplayName() < out[j].DisplayName()
	})
	return out, nil
}
