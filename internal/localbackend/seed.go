// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package localbackend

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/grouphub/internal/models"
)

// CreateGroup inserts a group owned by g.UserID and adds the owner as a
// member. An empty ID is generated.
func (b *Backend) CreateGroup(ctx context.Context, g models.Group) (models.Group, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Privacy == "" {
		g.Privacy = "PUBLIC"
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = b.now()
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return g, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tenant_groups (id, name, category, privacy, description, json_description,
			html_description, icon, thumbnail, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Category, g.Privacy, g.Description, string(g.JSONDescription),
		g.HTMLDescription, g.Icon, g.Thumbnail, g.UserID, g.CreatedAt); err != nil {
		return g, fmt.Errorf("insert group: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
		g.ID, g.UserID, g.CreatedAt); err != nil {
		return g, fmt.Errorf("insert owner membership: %w", err)
	}
	return g, tx.Commit()
}

// AddMember adds or refreshes a membership row.
func (b *Backend) AddMember(ctx context.Context, m models.GroupMember) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = b.now()
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO members (group_id, user_id, first_name, last_name, image, joined_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_id, user_id) DO UPDATE SET first_name = excluded.first_name,
			last_name = excluded.last_name, image = excluded.image`,
		m.GroupID, m.UserID, m.FirstName, m.LastName, m.Image, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// SeedFile is the shape of the optional seed file loaded at startup.
type SeedFile struct {
	Groups  []models.Group       `json:"groups"`
	Members []models.GroupMember `json:"members"`
}

// SeedFromFile loads groups and members from a JSON file. Groups that
// already exist are skipped.
func (b *Backend) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	created := 0
	for _, g := range seed.Groups {
		existing, err := b.GetGroupInfo(ctx, g.ID)
		if err != nil {
			return created, err
		}
		if existing.Group != nil {
			continue
		}
		if _, err := b.CreateGroup(ctx, g); err != nil {
			return created, err
		}
		created++
	}
	for _, m := range seed.Members {
		if err := b.AddMember(ctx, m); err != nil {
			return created, err
		}
	}
	return created, nil
}
