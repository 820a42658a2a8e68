// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/cache"
	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
)

// CacheTag is the query tag group info is cached under, scoped per group.
const CacheTag = "group-info"

var (
	// ErrGroupNotFound is returned by Load when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrEmptyForm is returned by Submit when no field is set.
	ErrEmptyForm = errors.New("empty form")

	// ErrPending is returned while a submit for the same group is running.
	ErrPending = errors.New("settings update already in progress")
)

// StatusError carries a non-success action status.
type StatusError struct {
	Action string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Action, e.Status)
}

// Actions are the server actions the synchronizer calls.
type Actions interface {
	GetGroupInfo(ctx context.Context, groupID string) (models.GroupInfoResult, error)
	UpdateGroupSettings(ctx context.Context, groupID string, field models.FieldTag, value, redirectPath string) (models.StatusResult, error)
}

// Navigator sends the user somewhere else.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

// Result reports the outcome of each field of a submit.
type Result struct {
	Updated []models.FieldTag `json:"updated"`
	Failed  []models.FieldTag `json:"failed"`
}

// Synchronizer loads group settings into a Form and writes a Form back as
// single-field updates.
type Synchronizer struct {
	actions  Actions
	uploader backend.Uploader
	cache    cache.Querier
	notifier notify.Notifier
	nav      Navigator
	cfg      config.SettingsConfig
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]bool
}

// NewSynchronizer wires the synchronizer to its collaborators. nav may be
// nil when no redirect target exists.
func NewSynchronizer(actions Actions, uploader backend.Uploader, c cache.Querier, n notify.Notifier, nav Navigator, cfg config.SettingsConfig) *Synchronizer {
	if nav == nil {
		nav = NavigatorFunc(func(context.Context, string) {})
	}
	return &Synchronizer{
		actions:  actions,
		uploader: uploader,
		cache:    c,
		notifier: n,
		nav:      nav,
		cfg:      cfg,
		logger:   logging.WithComponent("settings"),
		pending:  make(map[string]bool),
	}
}

// Load fetches the group through the cache and returns it with its form.
// A missing group redirects to the group creation flow.
func (s *Synchronizer) Load(ctx context.Context, groupID string) (models.Group, Form, error) {
	res, _, err := cache.Fetch(ctx, s.cache, cache.Key(CacheTag, groupID), func(ctx context.Context) (models.GroupInfoResult, error) {
		res, err := s.actions.GetGroupInfo(ctx, groupID)
		if err != nil {
			return res, err
		}
		if res.NotFound() || (res.Status == http.StatusOK && res.Group == nil) {
			return res, ErrGroupNotFound
		}
		if res.Status != http.StatusOK {
			return res, &StatusError{Action: backend.ActionGetGroupInfo, Status: res.Status}
		}
		return res, nil
	})
	if errors.Is(err, ErrGroupNotFound) {
		s.nav.Navigate(ctx, s.cfg.CreateGroupPath)
		return models.Group{}, Form{}, ErrGroupNotFound
	}
	if err != nil {
		return models.Group{}, Form{}, fmt.Errorf("load group %s: %w", groupID, err)
	}
	return *res.Group, FormFromGroup(*res.Group), nil
}

// Pending reports whether a submit for groupID is running.
func (s *Synchronizer) Pending(groupID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[groupID]
}

// Submit sends every set field of form as its own update, in fixed order.
// A failed field is reported and skipped; later fields still run. The
// cached group is invalidated when the run ends.
func (s *Synchronizer) Submit(ctx context.Context, groupID string, form Form) (Result, error) {
	steps := form.steps()
	if len(steps) == 0 {
		s.notifier.Notify(ctx, notify.Error("Empty form", "Change at least one field before saving."))
		return Result{}, ErrEmptyForm
	}

	s.mu.Lock()
	if s.pending[groupID] {
		s.mu.Unlock()
		return Result{}, ErrPending
	}
	s.pending[groupID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, groupID)
		s.mu.Unlock()
	}()

	log := s.logger.With().Str("group_id", groupID).Logger()
	redirect := s.redirectPath(groupID)

	var result Result
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			s.cache.InvalidatePrefix(cache.Key(CacheTag, groupID))
			return result, err
		}

		ok := s.runStep(ctx, log, groupID, redirect, st)
		metrics.SettingsFieldUpdates.WithLabelValues(string(st.tag), metrics.Outcome(ok)).Inc()
		if ok {
			result.Updated = append(result.Updated, st.tag)
		} else {
			result.Failed = append(result.Failed, st.tag)
		}
	}

	s.cache.InvalidatePrefix(cache.Key(CacheTag, groupID))

	if len(result.Failed) == 0 {
		s.notifier.Notify(ctx, notify.Success("Settings saved", "Group settings updated."))
	} else {
		names := make([]string, len(result.Failed))
		for i, tag := range result.Failed {
			names[i] = strings.ToLower(string(tag))
		}
		s.notifier.Notify(ctx, notify.Warning("Settings partly saved", "Not updated: "+strings.Join(names, ", ")))
	}
	log.Info().Int("updated", len(result.Updated)).Int("failed", len(result.Failed)).Msg("Group settings submitted")
	return result, nil
}

// runStep uploads the step's file if any, then sends the update. Failures
// are notified here.
func (s *Synchronizer) runStep(ctx context.Context, log zerolog.Logger, groupID, redirect string, st step) bool {
	value := st.value
	if st.upload != nil {
		up, err := s.uploader.Upload(ctx, *st.upload)
		if err != nil {
			log.Warn().Err(err).Str("field", string(st.tag)).Msg("Settings upload failed")
			s.notifier.Notify(ctx, notify.Error("Upload failed", fmt.Sprintf("Could not upload %s.", fieldLabel(st.tag))))
			return false
		}
		value = up.UUID
	}

	res, err := s.actions.UpdateGroupSettings(ctx, groupID, st.tag, value, redirect)
	if err != nil {
		log.Warn().Err(err).Str("field", string(st.tag)).Msg("Settings update failed")
		s.notifier.Notify(ctx, notify.Error("Update failed", fmt.Sprintf("Could not update %s.", fieldLabel(st.tag))))
		return false
	}
	if !res.OK() {
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("Could not update %s.", fieldLabel(st.tag))
		}
		log.Warn().Int("status", res.Status).Str("field", string(st.tag)).Msg("Settings update rejected")
		s.notifier.Notify(ctx, notify.Error("Update failed", msg))
		return false
	}
	return true
}

func (s *Synchronizer) redirectPath(groupID string) string {
	if strings.Contains(s.cfg.RedirectPath, "%s") {
		return fmt.Sprintf(s.cfg.RedirectPath, groupID)
	}
	return s.cfg.RedirectPath
}

func fieldLabel(tag models.FieldTag) string {
	switch tag {
	case models.FieldImage:
		return "thumbnail"
	case models.FieldIcon:
		return "icon"
	case models.FieldJSONDescription, models.FieldHTMLDescription:
		return "description"
	default:
		return strings.ToLower(string(tag))
	}
}
