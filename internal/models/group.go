// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// FieldTag names the single group field changed by one settings update.
type FieldTag string

const (
	FieldName            FieldTag = "NAME"
	FieldDescription     FieldTag = "DESCRIPTION"
	FieldJSONDescription FieldTag = "JSONDESCRIPTION"
	FieldHTMLDescription FieldTag = "HTMLDESCRIPTION"
	FieldIcon            FieldTag = "ICON"
	FieldImage           FieldTag = "IMAGE"
)

// AllFieldTags lists every tag accepted by the settings action.
var AllFieldTags = []FieldTag{
	FieldName,
	FieldDescription,
	FieldJSONDescription,
	FieldHTMLDescription,
	FieldIcon,
	FieldImage,
}

// Valid reports whether t is a known field tag.
func (t FieldTag) Valid() bool {
	for _, known := range AllFieldTags {
		if t == known {
			return true
		}
	}
	return false
}

// ParseFieldTag converts a wire string into a FieldTag.
func ParseFieldTag(s string) (FieldTag, error) {
	tag := FieldTag(s)
	if !tag.Valid() {
		return "", fmt.Errorf("unknown field tag %q", s)
	}
	return tag, nil
}

// Group is a tenant workspace. Description is carried in three variants:
// plain text, the structured editor document and the rendered markup.
type Group struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	Privacy         string          `json:"privacy,omitempty"`
	Description     string          `json:"description,omitempty"`
	JSONDescription json.RawMessage `json:"jsonDescription,omitempty"`
	HTMLDescription string          `json:"htmlDescription,omitempty"`
	Icon            string          `json:"icon,omitempty"`
	Thumbnail       string          `json:"thumbnail,omitempty"`
	Gallery         []Media         `json:"gallery"`
	UserID          string          `json:"userId"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// GroupSummary is the reduced group shape returned by search and explore.
type GroupSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Privacy     string `json:"privacy,omitempty"`
}

// GroupMember is one membership row of a group.
type GroupMember struct {
	UserID    string    `json:"userId"`
	GroupID   string    `json:"groupId"`
	FirstName string    `json:"firstname,omitempty"`
	LastName  string    `json:"lastname,omitempty"`
	Image     string    `json:"image,omitempty"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// DisplayName joins first and last name, falling back to the user id.
func (m GroupMember) DisplayName() string {
	switch {
	case m.FirstName != "" && m.LastName != "":
		return m.FirstName + " " + m.LastName
	case m.FirstName != "":
		return m.FirstName
	case m.LastName != "":
		return m.LastName
	default:
		return m.UserID
	}
}
