// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package backend

import (
	"context"
	"io"

	"github.com/tomtom215/grouphub/internal/models"
)

// Action names as exposed by the hosted backend.
const (
	ActionGetGroupInfo        = "onGetGroupInfo"
	ActionUpdateGroupSettings = "onUpDateGroupSettings"
	ActionUpdateGroupGallery  = "onUpdateGroupGallery"
	ActionRemoveGroupGallery  = "onRemoveGroupGallery"
	ActionSearchGroups        = "onSearchGroups"
	ActionGetExploreGroup     = "onGetExploreGroup"
	ActionGetAllGroupMembers  = "onGetAllGroupMembers"
	ActionGetAllUserMessages  = "onGetAllUserMessages"
	ActionSendMessage         = "onSendMessage"
	ActionGetDomainConfig     = "onGetDomainConfig"
	ActionAddCustomDomain     = "onAddCustomDomain"
)

// Actions is the set of server actions the components consume.
//
// A non-success outcome is reported through the Status field of the result;
// the error return is reserved for transport failures. The acting user is
// passed explicitly where the action depends on it.
type Actions interface {
	GetGroupInfo(ctx context.Context, groupID string) (models.GroupInfoResult, error)
	UpdateGroupSettings(ctx context.Context, groupID string, field models.FieldTag, value, redirectPath string) (models.StatusResult, error)
	UpdateGroupGallery(ctx context.Context, groupID string, media models.Media) (models.StatusResult, error)
	RemoveGroupGallery(ctx context.Context, groupID, mediaID string) (models.StatusResult, error)
	SearchGroups(ctx context.Context, kind models.SearchKind, term string) (models.GroupsResult, error)
	GetExploreGroup(ctx context.Context, term string, page int) (models.GroupsResult, error)
	GetAllGroupMembers(ctx context.Context, groupID string) (models.MembersResult, error)
	GetAllUserMessages(ctx context.Context, userID, receiverID string) (models.MessagesResult, error)
	SendMessage(ctx context.Context, senderID, receiverID, messageID, body string) (models.StatusResult, error)
	GetDomainConfig(ctx context.Context, groupID string) (models.DomainConfigResult, error)
	AddCustomDomain(ctx context.Context, groupID, domain string) (models.StatusResult, error)
}

// File is one upload handed to an Uploader.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Uploader stores file content and returns the id that references it.
type Uploader interface {
	Upload(ctx context.Context, f File) (models.UploadResult, error)
}
