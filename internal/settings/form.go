// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package settings

import (
	"strings"

	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/models"
)

// Form is the editable state of a group's settings. The three description
// fields are hidden inputs kept in step by SetDocument and SetDescription.
type Form struct {
	Name            string `json:"name" validate:"omitempty,max=100"`
	Description     string `json:"description" validate:"omitempty,max=5000"`
	JSONDescription string `json:"jsondescription" validate:"omitempty,json"`
	HTMLDescription string `json:"htmldescription"`

	// Files chosen for upload. The synchronizer uploads them first and
	// sends the returned id.
	Thumbnail *backend.File `json:"-"`
	Icon      *backend.File `json:"-"`

	// Current references, for display only.
	ThumbnailRef string `json:"thumbnail,omitempty"`
	IconRef      string `json:"icon,omitempty"`
}

// FormFromGroup merges the server copy of a group into a fresh form.
func FormFromGroup(g models.Group) Form {
	return Form{
		Name:            g.Name,
		Description:     g.Description,
		JSONDescription: string(g.JSONDescription),
		HTMLDescription: g.HTMLDescription,
		ThumbnailRef:    g.Thumbnail,
		IconRef:         g.Icon,
	}
}

// SetDocument replaces the rich-text document and re-serializes the plain
// and rendered descriptions from it.
func (f *Form) SetDocument(raw []byte) error {
	doc, err := ParseDocument(raw)
	if err != nil {
		return err
	}
	return f.setFromDocument(doc)
}

// SetDescription replaces the plain description and rebuilds the document
// from it, one paragraph per line.
func (f *Form) SetDescription(text string) error {
	return f.setFromDocument(DocumentFromText(text))
}

func (f *Form) setFromDocument(doc Node) error {
	if doc.Blank() {
		f.Description, f.JSONDescription, f.HTMLDescription = "", "", ""
		return nil
	}
	encoded, err := doc.JSON()
	if err != nil {
		return err
	}
	f.JSONDescription = encoded
	f.Description = doc.PlainText()
	f.HTMLDescription = doc.HTML()
	return nil
}

// step is one single-field update in submit order.
type step struct {
	tag    models.FieldTag
	value  string
	upload *backend.File
}

// steps lists the fields to send, in the fixed order thumbnail, icon,
// name, description, JSON document, rendered markup.
func (f Form) steps() []step {
	var out []step
	if f.Thumbnail != nil {
		out = append(out, step{tag: models.FieldImage, upload: f.Thumbnail})
	}
	if f.Icon != nil {
		out = append(out, step{tag: models.FieldIcon, upload: f.Icon})
	}
	if strings.TrimSpace(f.Name) != "" {
		out = append(out, step{tag: models.FieldName, value: f.Name})
	}
	if f.Description != "" {
		out = append(out, step{tag: models.FieldDescription, value: f.Description})
	}
	if f.JSONDescription != "" {
		out = append(out, step{tag: models.FieldJSONDescription, value: f.JSONDescription})
		if f.HTMLDescription != "" {
			out = append(out, step{tag: models.FieldHTMLDescription, value: f.HTMLDescription})
		}
	}
	return out
}

// Empty reports whether submitting the form would send nothing.
func (f Form) Empty() bool {
	return len(f.steps()) == 0
}
