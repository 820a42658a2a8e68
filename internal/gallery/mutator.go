// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

// Package gallery adds and removes entries of a group's media gallery.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/cache"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
	"github.com/tomtom215/grouphub/internal/settings"
	"github.com/tomtom215/grouphub/internal/validation"
)

var (
	// ErrPending is returned while another gallery operation on the same
	// group is in flight.
	ErrPending = errors.New("gallery update already in progress")

	// ErrNothingToAdd is returned by Add with neither a video nor images.
	ErrNothingToAdd = errors.New("nothing to add")

	// ErrHalted is returned by Add when an entry failed and the rest of
	// the batch was skipped.
	ErrHalted = errors.New("gallery upload halted")

	// ErrEmbedFailed is returned by Add when the video embed was not
	// committed. Images in the same request are still attempted.
	ErrEmbedFailed = errors.New("gallery video embed failed")
)

// Actions are the gallery server actions.
type Actions interface {
	UpdateGroupGallery(ctx context.Context, groupID string, media models.Media) (models.StatusResult, error)
	RemoveGroupGallery(ctx context.Context, groupID, mediaID string) (models.StatusResult, error)
}

// AddRequest is one submission of the gallery form.
type AddRequest struct {
	VideoURL string         `json:"videoUrl" validate:"omitempty,embedurl"`
	Images   []backend.File `json:"-"`
}

// AddResult lists the entries committed before the batch ended.
type AddResult struct {
	Added   []models.Media `json:"added"`
	Skipped int            `json:"skipped"`
}

// Mutator adds and removes gallery entries. Images upload one at a time.
type Mutator struct {
	actions  Actions
	uploader backend.Uploader
	cache    cache.Querier
	notifier notify.Notifier
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]bool
}

// NewMutator returns a mutator. The cached group info of a group is
// invalidated after each operation on it.
func NewMutator(actions Actions, uploader backend.Uploader, c cache.Querier, n notify.Notifier) *Mutator {
	return &Mutator{
		actions:  actions,
		uploader: uploader,
		cache:    c,
		notifier: n,
		logger:   logging.WithComponent("gallery"),
		pending:  make(map[string]bool),
	}
}

// Pending reports whether an operation on groupID is in flight.
func (m *Mutator) Pending(groupID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[groupID]
}

func (m *Mutator) acquire(groupID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending[groupID] {
		return false
	}
	m.pending[groupID] = true
	return true
}

func (m *Mutator) release(groupID string) {
	m.mu.Lock()
	delete(m.pending, groupID)
	m.mu.Unlock()
	m.cache.InvalidatePrefix(cache.Key(settings.CacheTag, groupID))
}

// Add commits the video embed, if any, then each image in order. The embed
// is a single update of its own: its failure is reported but does not stop
// the images. Within the images the first failure stops the batch; entries
// already committed stay. Exactly one failure notification is sent for a
// halted batch.
func (m *Mutator) Add(ctx context.Context, groupID string, req AddRequest) (AddResult, error) {
	if req.VideoURL == "" && len(req.Images) == 0 {
		return AddResult{}, ErrNothingToAdd
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return AddResult{}, verr
	}
	if !m.acquire(groupID) {
		return AddResult{}, ErrPending
	}
	defer m.release(groupID)

	log := m.logger.With().Str("group_id", groupID).Logger()

	var (
		result   AddResult
		embedErr error
	)
	if req.VideoURL != "" {
		media := models.EmbedMedia(req.VideoURL)
		if err := m.commit(ctx, groupID, media); err != nil {
			log.Warn().Err(err).Msg("Gallery video embed failed")
			m.notifier.Notify(ctx, notify.Error("Video not added", "The video could not be added to the gallery."))
			embedErr = fmt.Errorf("%w: %w", ErrEmbedFailed, err)
		} else {
			result.Added = append(result.Added, media)
		}
	}

	for i, img := range req.Images {
		if err := ctx.Err(); err != nil {
			return result, errors.Join(embedErr, err)
		}
		err := m.addImage(ctx, groupID, img, &result)
		if err == nil {
			continue
		}
		result.Skipped = len(req.Images) - i - 1
		log.Warn().Err(err).Str("media", img.Name).Int("added", len(result.Added)).Int("skipped", result.Skipped).Msg("Gallery batch halted")
		m.notifier.Notify(ctx, notify.Error("Gallery update failed", fmt.Sprintf("Could not add %s. %d added, %d skipped.", img.Name, len(result.Added), result.Skipped)))
		return result, errors.Join(embedErr, fmt.Errorf("%w: %w", ErrHalted, err))
	}

	if len(result.Added) > 0 {
		m.notifier.Notify(ctx, notify.Success("Gallery updated", fmt.Sprintf("%d item(s) added.", len(result.Added))))
	}
	return result, embedErr
}

func (m *Mutator) addImage(ctx context.Context, groupID string, img backend.File, result *AddResult) error {
	up, err := m.uploader.Upload(ctx, img)
	if err != nil {
		metrics.GalleryUploads.WithLabelValues(string(models.MediaKindImage), metrics.Outcome(false)).Inc()
		return err
	}
	media := models.ImageMedia(up.UUID)
	if err := m.commit(ctx, groupID, media); err != nil {
		return err
	}
	result.Added = append(result.Added, media)
	return nil
}

func (m *Mutator) commit(ctx context.Context, groupID string, media models.Media) error {
	res, err := m.actions.UpdateGroupGallery(ctx, groupID, media)
	if err == nil && !res.OK() {
		err = &StatusError{Status: res.Status, Message: res.Message}
	}
	metrics.GalleryUploads.WithLabelValues(string(media.Kind), metrics.Outcome(err == nil)).Inc()
	return err
}

// Remove deletes one gallery entry.
func (m *Mutator) Remove(ctx context.Context, groupID, mediaID string) error {
	if mediaID == "" {
		return errors.New("media id is required")
	}
	if !m.acquire(groupID) {
		return ErrPending
	}
	defer m.release(groupID)

	res, err := m.actions.RemoveGroupGallery(ctx, groupID, mediaID)
	if err == nil && !res.OK() {
		err = &StatusError{Status: res.Status, Message: res.Message}
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("group_id", groupID).Str("media_id", mediaID).Msg("Gallery remove failed")
		m.notifier.Notify(ctx, notify.Error("Remove failed", "Could not remove the gallery item."))
		return err
	}
	m.notifier.Notify(ctx, notify.Success("Removed", "Gallery item removed."))
	return nil
}

// StatusError carries a non-success action status and its message.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d", e.Status)
}
