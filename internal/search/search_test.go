// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package search

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/store"
)

const testDelay = 20 * time.Millisecond

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// gatedSearcher records calls and blocks each one until released.
type gatedSearcher struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan struct{}
	err   error
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{gates: make(map[string]chan struct{})}
}

func (g *gatedSearcher) gate(term string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[term]
	if !ok {
		ch = make(chan struct{})
		g.gates[term] = ch
	}
	return ch
}

func (g *gatedSearcher) release(term string) { close(g.gate(term)) }

func (g *gatedSearcher) SearchGroups(ctx context.Context, kind models.SearchKind, term string) (models.GroupsResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, string(kind)+":"+term)
	err := g.err
	g.mu.Unlock()

	select {
	case <-g.gate(term):
	case <-ctx.Done():
		return models.GroupsResult{}, ctx.Err()
	}
	if err != nil {
		return models.GroupsResult{}, err
	}
	return models.GroupsResult{Status: http.StatusOK, Groups: []models.GroupSummary{{ID: term, Name: term}}}, nil
}

func (g *gatedSearcher) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func TestDebouncer_SingleFire(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var fired []string
	d := NewDebouncer(ctx, testDelay, func(v string) {
		mu.Lock()
		fired = append(fired, v)
		mu.Unlock()
	})

	for _, v := range []string{"a", "al", "alp", "alph", "alpha"} {
		d.Input(v)
		time.Sleep(testDelay / 4)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) > 0
	})
	time.Sleep(3 * testDelay)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != "alpha" {
		t.Errorf("fired = %v, want [alpha]", fired)
	}
}

func TestDebouncer_CancelDropsPending(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	fired := make(chan string, 1)
	d := NewDebouncer(ctx, time.Hour, func(v string) { fired <- v })

	d.Input("x")
	cancel()
	<-d.Done()

	// Input after shutdown must not block.
	d.Input("y")

	select {
	case v := <-fired:
		t.Errorf("unexpected fire %q", v)
	default:
	}
}

func TestSearcher_Transitions(t *testing.T) {
	t.Parallel()

	fetcher := newGatedSearcher()
	fetcher.release("alpha")
	fetcher.release("beta")
	st := store.NewMemoryStore()
	s := NewSearcher(context.Background(), fetcher, st, models.SearchKindGroups, testDelay)
	defer s.Close()

	s.Input("alpha")
	if got := st.Search().Query; got != "alpha" {
		t.Errorf("immediate query = %q", got)
	}
	waitFor(t, func() bool {
		st := st.Search()
		return !st.Loading && len(st.Results) == 1 && st.Results[0].ID == "alpha"
	})

	// Same debounced value: no new fetch.
	s.Input("alph")
	s.Input("alpha")
	time.Sleep(3 * testDelay)
	if calls := fetcher.Calls(); len(calls) != 1 {
		t.Fatalf("calls = %v, want one", calls)
	}

	s.Input("beta")
	waitFor(t, func() bool {
		r := st.Search().Results
		return len(r) == 1 && r[0].ID == "beta"
	})

	s.Input("")
	waitFor(t, func() bool {
		st := st.Search()
		return st.Debounced == "" && st.Results == nil && !st.Loading
	})

	want := []string{"GROUPS:alpha", "GROUPS:beta"}
	calls := fetcher.Calls()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestSearcher_StaleResponseDropped(t *testing.T) {
	t.Parallel()

	fetcher := newGatedSearcher()
	st := store.NewMemoryStore()
	s := NewSearcher(context.Background(), fetcher, st, models.SearchKindPosts, testDelay)
	defer s.Close()

	s.Input("old")
	waitFor(t, func() bool { return len(fetcher.Calls()) == 1 })
	s.Input("new")
	waitFor(t, func() bool { return len(fetcher.Calls()) == 2 })

	before := testutil.ToFloat64(metrics.StaleResponsesDropped.WithLabelValues("search"))

	// The newer response lands first, then the older one.
	fetcher.release("new")
	waitFor(t, func() bool {
		r := st.Search().Results
		return len(r) == 1 && r[0].ID == "new"
	})
	fetcher.release("old")
	waitFor(t, func() bool {
		return testutil.ToFloat64(metrics.StaleResponsesDropped.WithLabelValues("search")) > before
	})

	got := st.Search()
	if len(got.Results) != 1 || got.Results[0].ID != "new" {
		t.Errorf("results overwritten by stale response: %+v", got.Results)
	}
	if got.Loading {
		t.Error("loading still set")
	}
}

func TestSearcher_ClearBeatsInFlightFetch(t *testing.T) {
	t.Parallel()

	fetcher := newGatedSearcher()
	st := store.NewMemoryStore()
	s := NewSearcher(context.Background(), fetcher, st, models.SearchKindGroups, testDelay)
	defer s.Close()

	s.Input("slow")
	waitFor(t, func() bool { return len(fetcher.Calls()) == 1 })
	s.Input("")
	waitFor(t, func() bool { return st.Search().Debounced == "" && st.Search().Seq == 2 })

	fetcher.release("slow")
	time.Sleep(3 * testDelay)
	if r := st.Search().Results; r != nil {
		t.Errorf("cleared results repopulated: %+v", r)
	}
}

func TestSearcher_CloseDropsLateWrites(t *testing.T) {
	t.Parallel()

	fetcher := newGatedSearcher()
	st := store.NewMemoryStore()
	s := NewSearcher(context.Background(), fetcher, st, models.SearchKindGroups, testDelay)

	s.Input("late")
	waitFor(t, func() bool { return len(fetcher.Calls()) == 1 })
	s.Close()
	fetcher.release("late")

	if r := st.Search().Results; r != nil {
		t.Errorf("write after Close: %+v", r)
	}
	s.Input("ignored")
	if q := st.Search().Query; q != "late" {
		t.Errorf("Input after Close changed query to %q", q)
	}
}

func TestSearcher_FetchErrorClearsLoading(t *testing.T) {
	t.Parallel()

	fetcher := newGatedSearcher()
	fetcher.err = errors.New("backend down")
	fetcher.release("boom")
	st := store.NewMemoryStore()
	s := NewSearcher(context.Background(), fetcher, st, models.SearchKindGroups, testDelay)
	defer s.Close()

	s.Input("boom")
	waitFor(t, func() bool {
		st := st.Search()
		return st.Debounced == "boom" && !st.Loading && st.Seq == 1
	})
	if r := st.Search().Results; r != nil {
		t.Errorf("results = %+v, want none", r)
	}
}
