// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package models

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// MediaKind tags a gallery entry at write time.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindEmbed MediaKind = "embed"
)

// Media is one gallery entry. Exactly one of Ref (image) or URL (embed) is set,
// selected by Kind.
type Media struct {
	ID   string    `json:"id,omitempty"`
	Kind MediaKind `json:"kind"`
	Ref  string    `json:"ref,omitempty"`
	URL  string    `json:"url,omitempty"`
}

// ImageMedia builds an image entry referencing stored upload content.
func ImageMedia(ref string) Media {
	return Media{Kind: MediaKindImage, Ref: ref}
}

// EmbedMedia builds a video embed entry.
func EmbedMedia(url string) Media {
	return Media{Kind: MediaKindEmbed, URL: url}
}

// Value returns the reference or URL carried by the entry.
func (m Media) Value() string {
	if m.Kind == MediaKindEmbed {
		return m.URL
	}
	return m.Ref
}

// Validate checks that the variant fields match the kind.
func (m Media) Validate() error {
	switch m.Kind {
	case MediaKindImage:
		if m.Ref == "" || m.URL != "" {
			return fmt.Errorf("image media requires ref only")
		}
	case MediaKindEmbed:
		if m.URL == "" || m.Ref != "" {
			return fmt.Errorf("embed media requires url only")
		}
	default:
		return fmt.Errorf("unknown media kind %q", m.Kind)
	}
	return nil
}

// UnmarshalJSON accepts the tagged object form and, for rows written before
// entries were tagged, a bare string.
func (m *Media) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*m = ClassifyLegacy(legacy)
		return nil
	}

	type plain Media
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode media: %w", err)
	}
	*m = Media(p)
	return m.Validate()
}

// ClassifyLegacy tags an untagged gallery string. Absolute http(s) URLs are
// embeds; anything else is a storage reference.
func ClassifyLegacy(value string) Media {
	v := strings.TrimSpace(value)
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return EmbedMedia(v)
	}
	return ImageMedia(v)
}
