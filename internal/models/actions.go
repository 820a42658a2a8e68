// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package models

import "net/http"

// StatusResult is the bare {status, message} reply of mutating server actions.
type StatusResult struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports a 200 status.
func (r StatusResult) OK() bool { return r.Status == http.StatusOK }

// GroupInfoResult is returned by onGetGroupInfo.
type GroupInfoResult struct {
	Status int    `json:"status"`
	Group  *Group `json:"group,omitempty"`
}

// NotFound reports that the group does not exist.
func (r GroupInfoResult) NotFound() bool { return r.Status == http.StatusNotFound }

// GroupsResult is returned by onSearchGroups and onGetExploreGroup.
type GroupsResult struct {
	Status int            `json:"status"`
	Groups []GroupSummary `json:"groups"`
}

// MembersResult is returned by onGetAllGroupMembers.
type MembersResult struct {
	Status  int           `json:"status"`
	Members []GroupMember `json:"members"`
}

// MessagesResult is returned by onGetAllUserMessages.
type MessagesResult struct {
	Status   int       `json:"status"`
	Messages []Message `json:"messages"`
}

// DomainConfigResult is returned by onGetDomainConfig.
type DomainConfigResult struct {
	Status int           `json:"status"`
	Config *DomainConfig `json:"config,omitempty"`
}

// UploadResult identifies stored upload content.
type UploadResult struct {
	UUID string `json:"uuid"`
}
