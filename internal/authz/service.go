// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package authz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
)

var (
	// ErrGroupNotFound is returned when the backend does not know the group.
	ErrGroupNotFound = errors.New("group not found")

	// ErrUnauthenticated is returned for checks without a user.
	ErrUnauthenticated = errors.New("no authenticated user")
)

// Directory resolves who owns and who belongs to a group.
// backend.Actions satisfies it.
type Directory interface {
	GetGroupInfo(ctx context.Context, groupID string) (models.GroupInfoResult, error)
	GetAllGroupMembers(ctx context.Context, groupID string) (models.MembersResult, error)
}

// DefaultRoleTTL is how long loaded group roles are trusted.
const DefaultRoleTTL = 30 * time.Second

// Service answers group authorization questions, loading each group's
// roles from the Directory on first use and again after the role TTL.
type Service struct {
	enforcer *Enforcer
	dir      Directory
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	loaded map[string]time.Time
}

// NewService creates a Service. A non-positive ttl uses DefaultRoleTTL.
func NewService(enforcer *Enforcer, dir Directory, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultRoleTTL
	}
	return &Service{
		enforcer: enforcer,
		dir:      dir,
		ttl:      ttl,
		now:      time.Now,
		loaded:   make(map[string]time.Time),
	}
}

// CanAccess reports whether userID may perform action on object in groupID.
func (s *Service) CanAccess(ctx context.Context, userID, groupID, object, action string) (bool, error) {
	if userID == "" {
		return false, ErrUnauthenticated
	}
	if err := s.ensureRoles(ctx, groupID); err != nil {
		return false, err
	}

	allowed, err := s.enforcer.Enforce(userID, groupID, object, action)
	if err != nil {
		return false, err
	}

	logging.Ctx(ctx).Debug().
		Str("component", "authz").
		Str("group_id", groupID).
		Str("object", object).
		Str("action", action).
		Strs("roles", s.enforcer.RolesInGroup(userID, groupID)).
		Bool("allowed", allowed).
		Msg("authorization decision")

	return allowed, nil
}

// Invalidate forces the next check in groupID to reload its roles.
func (s *Service) Invalidate(groupID string) {
	s.mu.Lock()
	delete(s.loaded, groupID)
	s.mu.Unlock()
}

func (s *Service) ensureRoles(ctx context.Context, groupID string) error {
	s.mu.Lock()
	at, ok := s.loaded[groupID]
	s.mu.Unlock()
	if ok && s.now().Sub(at) < s.ttl {
		return nil
	}

	err := s.loadRoles(ctx, groupID)
	metrics.AuthzRoleSyncs.WithLabelValues(metrics.Outcome(err == nil)).Inc()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.loaded[groupID] = s.now()
	s.mu.Unlock()
	return nil
}

func (s *Service) loadRoles(ctx context.Context, groupID string) error {
	info, err := s.dir.GetGroupInfo(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load group %s: %w", groupID, err)
	}
	if info.NotFound() || (info.Status == http.StatusOK && info.Group == nil) {
		return ErrGroupNotFound
	}
	if info.Status != http.StatusOK {
		return fmt.Errorf("load group %s: status %d", groupID, info.Status)
	}

	members, err := s.dir.GetAllGroupMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load members of %s: %w", groupID, err)
	}
	if members.Status != http.StatusOK {
		return fmt.Errorf("load members of %s: status %d", groupID, members.Status)
	}

	ids := make([]string, 0, len(members.Members))
	for _, m := range members.Members {
		ids = append(ids, m.UserID)
	}
	return s.enforcer.SetGroupRoles(groupID, info.Group.UserID, ids)
}
