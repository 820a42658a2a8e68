// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package search

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/store"
)

// GroupSearcher is the onSearchGroups action.
type GroupSearcher interface {
	SearchGroups(ctx context.Context, kind models.SearchKind, term string) (models.GroupsResult, error)
}

// Searcher is a debounced search box bound to one store.
type Searcher struct {
	fetcher  GroupSearcher
	store    store.Store
	kind     models.SearchKind
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	debounce *Debouncer
	wg       sync.WaitGroup

	// mu also serializes the store writes so sequence checks and writes
	// happen atomically.
	mu        sync.Mutex
	debounced string
	issued    uint64
	applied   uint64
}

// NewSearcher returns a searcher for kind whose fetches live until ctx
// ends or Close is called.
func NewSearcher(ctx context.Context, fetcher GroupSearcher, st store.Store, kind models.SearchKind, delay time.Duration) *Searcher {
	if kind == "" {
		kind = models.SearchKindGroups
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Searcher{
		fetcher: fetcher,
		store:   st,
		kind:    kind,
		logger:  logging.WithComponent("search"),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.debounce = NewDebouncer(ctx, delay, s.onDebounced)
	return s
}

// Kind reports what the searcher looks for.
func (s *Searcher) Kind() models.SearchKind { return s.kind }

// Input records a keystroke. The query slot updates at once; the fetch
// waits for the quiet period.
func (s *Searcher) Input(query string) {
	if s.ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.store.UpdateSearch(func(st models.SearchState) models.SearchState {
		st.Query = query
		return st
	})
	s.mu.Unlock()
	s.debounce.Input(query)
}

// Close cancels in-flight fetches and waits for them to return. Nothing is
// written to the store afterwards.
func (s *Searcher) Close() {
	s.cancel()
	<-s.debounce.Done()
	s.wg.Wait()
}

func (s *Searcher) onDebounced(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q == s.debounced || s.ctx.Err() != nil {
		return
	}
	s.debounced = q
	s.issued++
	seq := s.issued

	if q == "" {
		s.applied = seq
		s.store.UpdateSearch(func(st models.SearchState) models.SearchState {
			st.Debounced = ""
			st.Results = nil
			st.Loading = false
			st.Seq = seq
			return st
		})
		return
	}

	s.store.UpdateSearch(func(st models.SearchState) models.SearchState {
		st.Debounced = q
		st.Loading = true
		return st
	})
	metrics.SearchFetches.WithLabelValues("search").Inc()

	s.wg.Add(1)
	go s.fetch(seq, q)
}

func (s *Searcher) fetch(seq uint64, term string) {
	defer s.wg.Done()

	res, err := s.fetcher.SearchGroups(s.ctx, s.kind, term)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	if seq < s.applied {
		metrics.StaleResponsesDropped.WithLabelValues("search").Inc()
		s.logger.Debug().Uint64("seq", seq).Uint64("applied", s.applied).Str("term", term).Msg("Dropping stale search response")
		return
	}
	s.applied = seq
	latest := seq == s.issued

	var results []models.GroupSummary
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("term", term).Msg("Group search failed")
	case res.Status != http.StatusOK:
		s.logger.Warn().Int("status", res.Status).Str("term", term).Msg("Group search returned non-success status")
	default:
		results = res.Groups
	}

	s.store.UpdateSearch(func(st models.SearchState) models.SearchState {
		st.Results = results
		st.Seq = seq
		if latest {
			st.Loading = false
		}
		return st
	})
}
