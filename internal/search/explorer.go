// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package search

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/store"
)

// ExploreFetcher is the onGetExploreGroup action.
type ExploreFetcher interface {
	GetExploreGroup(ctx context.Context, term string, page int) (models.GroupsResult, error)
}

// Explorer is an infinite-scroll feed of groups for one term at a time.
// At most one page is in flight.
type Explorer struct {
	fetcher ExploreFetcher
	store   store.Store
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.Mutex
	term      string
	seq       uint64
	next      int
	loading   bool
	exhausted bool
}

// NewExplorer returns an idle explorer; call Reset to load the first page.
func NewExplorer(ctx context.Context, fetcher ExploreFetcher, st store.Store) *Explorer {
	ctx, cancel := context.WithCancel(ctx)
	return &Explorer{
		fetcher: fetcher,
		store:   st,
		logger:  logging.WithComponent("explore"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Reset clears the feed and loads page 0 for term. Pages still in flight
// for the previous term are discarded when they arrive.
func (e *Explorer) Reset(term string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.Err() != nil {
		return
	}

	e.seq++
	e.term = term
	e.next = 0
	e.loading = false
	e.exhausted = false
	e.store.UpdateExplorePages(func([]models.ExplorePage) []models.ExplorePage {
		return []models.ExplorePage{}
	})
	e.startLocked()
}

// More requests the next page. It reports false when a page is already
// loading, the feed is exhausted or the explorer is closed.
func (e *Explorer) More() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.Err() != nil || e.loading || e.exhausted || e.seq == 0 {
		return false
	}
	e.startLocked()
	return true
}

// Exhausted reports whether the last page came back empty.
func (e *Explorer) Exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exhausted
}

// Close cancels in-flight fetches and waits for them.
func (e *Explorer) Close() {
	e.cancel()
	e.wg.Wait()
}

func (e *Explorer) startLocked() {
	e.loading = true
	metrics.SearchFetches.WithLabelValues("explore").Inc()
	e.wg.Add(1)
	go e.fetch(e.seq, e.term, e.next)
}

func (e *Explorer) fetch(seq uint64, term string, page int) {
	defer e.wg.Done()

	res, err := e.fetcher.GetExploreGroup(e.ctx, term, page)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx.Err() != nil {
		return
	}
	if seq != e.seq {
		metrics.StaleResponsesDropped.WithLabelValues("explore").Inc()
		e.logger.Debug().Str("term", term).Int("page", page).Msg("Dropping explore page for replaced term")
		return
	}
	e.loading = false

	if err != nil {
		e.logger.Warn().Err(err).Str("term", term).Int("page", page).Msg("Explore fetch failed")
		return
	}
	if res.Status != http.StatusOK {
		e.logger.Warn().Int("status", res.Status).Str("term", term).Int("page", page).Msg("Explore fetch returned non-success status")
		return
	}
	if len(res.Groups) == 0 {
		e.exhausted = true
		return
	}

	e.next = page + 1
	e.store.UpdateExplorePages(func(pages []models.ExplorePage) []models.ExplorePage {
		return append(pages, models.ExplorePage{Term: term, Page: page, Groups: res.Groups})
	})
}
