// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/realtime"
	"github.com/tomtom215/grouphub/internal/store"
)

// fakeChannel reports a scripted status and records tracked payloads.
type fakeChannel struct {
	status       realtime.ChannelStatus
	subscribeErr error

	mu           sync.Mutex
	sync         func(models.PresenceSnapshot)
	onStatus     func(realtime.ChannelStatus, error)
	tracked      []models.PresencePayload
	unsubscribed int
}

func (f *fakeChannel) OnSync(fn func(models.PresenceSnapshot)) {
	f.mu.Lock()
	f.sync = fn
	f.mu.Unlock()
}

func (f *fakeChannel) Subscribe(_ context.Context, onStatus func(realtime.ChannelStatus, error)) error {
	f.mu.Lock()
	f.onStatus = onStatus
	f.mu.Unlock()
	if f.subscribeErr != nil {
		onStatus(realtime.StatusChannelError, f.subscribeErr)
		return f.subscribeErr
	}
	if f.status != "" {
		onStatus(f.status, nil)
	}
	return nil
}

func (f *fakeChannel) Track(_ context.Context, p models.PresencePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked = append(f.tracked, p)
	return nil
}

func (f *fakeChannel) Unsubscribe() {
	f.mu.Lock()
	f.unsubscribed++
	onStatus := f.onStatus
	f.mu.Unlock()
	if onStatus != nil {
		onStatus(realtime.StatusClosed, nil)
	}
}

func (f *fakeChannel) emit(snap models.PresenceSnapshot) {
	f.mu.Lock()
	fn := f.sync
	f.mu.Unlock()
	fn(snap)
}

func TestTracker_Lifecycle(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{status: realtime.StatusSubscribed}
	st := store.NewMemoryStore()
	tr := NewTracker(ch, st, "u1")

	if tr.State() != StateDisconnected {
		t.Fatalf("initial state = %s", tr.State())
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tr.State() != StateSubscribed {
		t.Errorf("state = %s, want SUBSCRIBED", tr.State())
	}
	if len(ch.tracked) != 1 || ch.tracked[0].Member.UserID != "u1" {
		t.Errorf("tracked = %+v", ch.tracked)
	}
	if err := tr.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	tr.Stop()
	tr.Stop()
	if tr.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED", tr.State())
	}
	if ch.unsubscribed != 1 {
		t.Errorf("unsubscribed %d times", ch.unsubscribed)
	}
}

func TestTracker_JoiningUntilSubscribed(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	tr := NewTracker(ch, store.NewMemoryStore(), "u1")
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.State() != StateJoining {
		t.Errorf("state = %s, want JOINING", tr.State())
	}
	if len(ch.tracked) != 0 {
		t.Error("tracked before subscription was live")
	}

	ch.onStatus(realtime.StatusSubscribed, nil)
	if tr.State() != StateSubscribed || len(ch.tracked) != 1 {
		t.Errorf("state = %s tracked = %d", tr.State(), len(ch.tracked))
	}
}

func TestTracker_SubscribeErrorAllowsRetry(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{subscribeErr: errors.New("bus closed")}
	tr := NewTracker(ch, store.NewMemoryStore(), "u1")

	if err := tr.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if tr.State() != StateDisconnected {
		t.Fatalf("state = %s, want DISCONNECTED", tr.State())
	}

	ch.subscribeErr = nil
	ch.status = realtime.StatusSubscribed
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	if tr.State() != StateSubscribed {
		t.Errorf("state = %s", tr.State())
	}
}

func TestTracker_SyncReplacesOnlineMembers(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{status: realtime.StatusSubscribed}
	st := store.NewMemoryStore()
	tr := NewTracker(ch, st, "u1")
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	p := func(id string) []models.PresencePayload {
		return []models.PresencePayload{{Member: models.PresenceMember{UserID: id}}}
	}
	ch.emit(models.PresenceSnapshot{"k1": p("u1"), "k2": p("u2"), "k3": p("u2")})
	got := st.OnlineMembers()
	if len(got) != 2 || got[0].ID != "u1" || got[1].ID != "u2" {
		t.Errorf("online = %+v", got)
	}

	// Last sync wins.
	ch.emit(models.PresenceSnapshot{"k3": p("u3")})
	got = st.OnlineMembers()
	if len(got) != 1 || got[0].ID != "u3" {
		t.Errorf("online after second sync = %+v", got)
	}

	tr.Stop()
	ch.emit(models.PresenceSnapshot{"k9": p("u9")})
	if got := st.OnlineMembers(); len(got) != 1 || got[0].ID != "u3" {
		t.Errorf("sync applied after Stop: %+v", got)
	}
}

func TestReduce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		snap models.PresenceSnapshot
		want []string
	}{
		{"empty", models.PresenceSnapshot{}, nil},
		{"first payload wins", models.PresenceSnapshot{
			"a": {{Member: models.PresenceMember{UserID: "u1"}}, {Member: models.PresenceMember{UserID: "u2"}}},
		}, []string{"u1"}},
		{"empty payload list skipped", models.PresenceSnapshot{"a": {}, "b": {{Member: models.PresenceMember{UserID: "u2"}}}}, []string{"u2"}},
		{"blank user skipped", models.PresenceSnapshot{"a": {{}}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Reduce(tt.snap)
			if len(got) != len(tt.want) {
				t.Fatalf("Reduce = %+v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("member %d = %q, want %q", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestTrackers_EventuallyConsistent(t *testing.T) {
	t.Parallel()

	const n = 5
	bus := realtime.NewMemoryBus(nil)
	defer bus.Close()

	stores := make([]*store.MemoryStore, n)
	trackers := make([]*Tracker, n)
	for i := 0; i < n; i++ {
		stores[i] = store.NewMemoryStore()
		trackers[i] = NewTracker(bus.Presence("tracking", time.Hour), stores[i], fmt.Sprintf("user-%d", i))
		if err := trackers[i].Start(context.Background()); err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
	}
	defer func() {
		for _, tr := range trackers {
			tr.Stop()
		}
	}()

	deadline := time.Now().Add(3 * time.Second)
	for {
		done := true
		for _, st := range stores {
			if len(st.OnlineMembers()) != n {
				done = false
				break
			}
		}
		if done {
			break
		}
		if time.Now().After(deadline) {
			for i, st := range stores {
				t.Logf("tracker %d sees %+v", i, st.OnlineMembers())
			}
			t.Fatal("online sets did not converge")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestObserver_DoesNotTrack(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{status: realtime.StatusSubscribed}
	st := store.NewMemoryStore()
	obs := NewObserver(ch, st)
	if err := obs.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer obs.Stop()

	if obs.State() != StateSubscribed {
		t.Errorf("state = %s, want SUBSCRIBED", obs.State())
	}
	if len(ch.tracked) != 0 {
		t.Errorf("observer tracked %+v", ch.tracked)
	}

	ch.emit(models.PresenceSnapshot{"k1": {{Member: models.PresenceMember{UserID: "u1"}}}})
	if got := st.OnlineMembers(); len(got) != 1 || got[0].ID != "u1" {
		t.Errorf("OnlineMembers() = %+v", got)
	}
}
