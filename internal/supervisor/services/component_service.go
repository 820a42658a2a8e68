// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package services

import (
	"context"
	"fmt"
)

// Component has a Start/Stop lifecycle, like *presence.Tracker.
type Component interface {
	Start(ctx context.Context) error
	Stop()
}

// ComponentService adapts Start/Stop components to suture. Components are
// single use, so every run builds a fresh one from newComponent.
type ComponentService struct {
	name         string
	newComponent func() Component
}

// NewComponentService creates a ComponentService named name.
func NewComponentService(name string, newComponent func() Component) *ComponentService {
	return &ComponentService{name: name, newComponent: newComponent}
}

// Serve implements suture.Service. A failed Start is returned so the
// supervisor retries with backoff.
func (s *ComponentService) Serve(ctx context.Context) error {
	c := s.newComponent()
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}
	<-ctx.Done()
	c.Stop()
	return ctx.Err()
}

func (s *ComponentService) String() string {
	return s.name
}
