// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package settings

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/cache"
	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
)

type updateCall struct {
	groupID  string
	tag      models.FieldTag
	value    string
	redirect string
}

type fakeActions struct {
	mu        sync.Mutex
	infoCalls int
	info      models.GroupInfoResult
	updates   []updateCall
	statusFor map[models.FieldTag]int
	block     chan struct{}
}

func (f *fakeActions) GetGroupInfo(_ context.Context, groupID string) (models.GroupInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	return f.info, nil
}

func (f *fakeActions) UpdateGroupSettings(_ context.Context, groupID string, field models.FieldTag, value, redirect string) (models.StatusResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{groupID, field, value, redirect})
	if status, ok := f.statusFor[field]; ok {
		return models.StatusResult{Status: status, Message: "rejected"}, nil
	}
	return models.StatusResult{Status: http.StatusOK}, nil
}

func (f *fakeActions) calls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

type fakeUploader struct {
	fail map[string]bool
}

func (u fakeUploader) Upload(_ context.Context, f backend.File) (models.UploadResult, error) {
	if u.fail[f.Name] {
		return models.UploadResult{}, backend.ErrUploadFailed
	}
	return models.UploadResult{UUID: "uuid-" + f.Name}, nil
}

var testCfg = config.SettingsConfig{RedirectPath: "/group/%s/settings", CreateGroupPath: "/group/create"}

func newTestSync(t *testing.T, actions *fakeActions, up backend.Uploader, nav Navigator) (*Synchronizer, *notify.Recorder, *cache.Cache) {
	t.Helper()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	rec := &notify.Recorder{}
	return NewSynchronizer(actions, up, c, rec, nav, testCfg), rec, c
}

func TestSubmit_NameOnly(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{}
	s, rec, _ := newTestSync(t, actions, fakeUploader{}, nil)

	res, err := s.Submit(context.Background(), "g1", Form{Name: "Alpha"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	calls := actions.calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %+v, want exactly one", calls)
	}
	want := updateCall{"g1", models.FieldName, "Alpha", "/group/g1/settings"}
	if calls[0] != want {
		t.Errorf("call = %+v, want %+v", calls[0], want)
	}
	if len(res.Updated) != 1 || len(res.Failed) != 0 {
		t.Errorf("result = %+v", res)
	}
	if rec.Count(notify.LevelSuccess) != 1 || len(rec.All()) != 1 {
		t.Errorf("notifications = %+v", rec.All())
	}
}

func TestSubmit_EmptyForm(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{}
	s, rec, _ := newTestSync(t, actions, fakeUploader{}, nil)

	_, err := s.Submit(context.Background(), "g1", Form{Name: "   "})
	if !errors.Is(err, ErrEmptyForm) {
		t.Fatalf("err = %v, want ErrEmptyForm", err)
	}
	if len(actions.calls()) != 0 {
		t.Error("empty form issued calls")
	}
	all := rec.All()
	if len(all) != 1 || all[0].Level != notify.LevelError || all[0].Title != "Empty form" {
		t.Errorf("notifications = %+v", all)
	}
}

func TestSubmit_BlankDescriptionIsEmptyForm(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{}
	s, rec, _ := newTestSync(t, actions, fakeUploader{}, nil)

	var f Form
	if err := f.SetDescription(""); err != nil {
		t.Fatal(err)
	}
	_, err := s.Submit(context.Background(), "g1", f)
	if !errors.Is(err, ErrEmptyForm) {
		t.Fatalf("err = %v, want ErrEmptyForm", err)
	}
	if calls := actions.calls(); len(calls) != 0 {
		t.Errorf("blank description issued %+v", calls)
	}
	if rec.Count(notify.LevelSuccess) != 0 {
		t.Errorf("notifications = %+v", rec.All())
	}
}

func TestSubmit_NameSentVerbatim(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{}
	s, _, _ := newTestSync(t, actions, fakeUploader{}, nil)

	if _, err := s.Submit(context.Background(), "g1", Form{Name: " Alpha Team "}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	calls := actions.calls()
	if len(calls) != 1 || calls[0].value != " Alpha Team " {
		t.Errorf("calls = %+v, want the name unchanged", calls)
	}
}

func TestSubmit_FieldOrderAndPartialFailure(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{statusFor: map[models.FieldTag]int{models.FieldName: http.StatusForbidden}}
	s, rec, _ := newTestSync(t, actions, fakeUploader{fail: map[string]bool{"icon.png": true}}, nil)

	form := Form{
		Name:      "Alpha",
		Thumbnail: &backend.File{Name: "thumb.png", Body: strings.NewReader("t")},
		Icon:      &backend.File{Name: "icon.png", Body: strings.NewReader("i")},
	}
	if err := form.SetDocument([]byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Hi <you>"}]}]}`)); err != nil {
		t.Fatal(err)
	}

	res, err := s.Submit(context.Background(), "g1", form)
	if err != nil {
		t.Fatal(err)
	}

	var tags []models.FieldTag
	for _, c := range actions.calls() {
		tags = append(tags, c.tag)
	}
	// ICON never reaches the action because its upload failed.
	want := []models.FieldTag{models.FieldImage, models.FieldName, models.FieldDescription, models.FieldJSONDescription, models.FieldHTMLDescription}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, tags[i], want[i])
		}
	}
	calls := actions.calls()
	if calls[0].value != "uuid-thumb.png" {
		t.Errorf("thumbnail value = %q", calls[0].value)
	}
	if calls[2].value != "Hi <you>" || calls[4].value != "<p>Hi &lt;you&gt;</p>" {
		t.Errorf("description values = %q / %q", calls[2].value, calls[4].value)
	}

	if len(res.Failed) != 2 || res.Failed[0] != models.FieldIcon || res.Failed[1] != models.FieldName {
		t.Errorf("failed = %v", res.Failed)
	}
	if rec.Count(notify.LevelError) != 2 || rec.Count(notify.LevelWarning) != 1 || rec.Count(notify.LevelSuccess) != 0 {
		t.Errorf("notifications = %+v", rec.All())
	}
	all := rec.All()
	if last := all[len(all)-1]; !strings.Contains(last.Message, "icon") || !strings.Contains(last.Message, "name") {
		t.Errorf("summary = %q", last.Message)
	}
}

func TestSubmit_PendingGuard(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{block: make(chan struct{})}
	s, _, _ := newTestSync(t, actions, fakeUploader{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "g1", Form{Name: "A"})
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !s.Pending("g1") {
		if time.Now().After(deadline) {
			t.Fatal("submit never became pending")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := s.Submit(context.Background(), "g1", Form{Name: "B"}); !errors.Is(err, ErrPending) {
		t.Errorf("concurrent submit err = %v, want ErrPending", err)
	}
	close(actions.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if s.Pending("g1") {
		t.Error("pending flag not cleared")
	}
}

func TestLoad_CachesAndInvalidates(t *testing.T) {
	t.Parallel()

	group := &models.Group{ID: "g1", Name: "Alpha", Description: "plain", Icon: "icon-1"}
	actions := &fakeActions{info: models.GroupInfoResult{Status: http.StatusOK, Group: group}}
	s, _, _ := newTestSync(t, actions, fakeUploader{}, nil)
	ctx := context.Background()

	g, form, err := s.Load(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if g.Name != "Alpha" || form.Name != "Alpha" || form.IconRef != "icon-1" {
		t.Errorf("group=%+v form=%+v", g, form)
	}
	if _, _, err := s.Load(ctx, "g1"); err != nil {
		t.Fatal(err)
	}
	if actions.infoCalls != 1 {
		t.Errorf("info calls = %d, want 1 (cached)", actions.infoCalls)
	}

	if _, err := s.Submit(ctx, "g1", Form{Name: "Beta"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Load(ctx, "g1"); err != nil {
		t.Fatal(err)
	}
	if actions.infoCalls != 2 {
		t.Errorf("info calls = %d, want 2 after invalidation", actions.infoCalls)
	}
}

func TestLoad_NotFoundRedirects(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{info: models.GroupInfoResult{Status: http.StatusNotFound}}
	var navigated []string
	s, _, _ := newTestSync(t, actions, fakeUploader{}, NavigatorFunc(func(_ context.Context, path string) {
		navigated = append(navigated, path)
	}))

	if _, _, err := s.Load(context.Background(), "missing"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("err = %v, want ErrGroupNotFound", err)
	}
	if len(navigated) != 1 || navigated[0] != "/group/create" {
		t.Errorf("navigated = %v", navigated)
	}

	// Not-found is not cached.
	if _, _, err := s.Load(context.Background(), "missing"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatal(err)
	}
	if actions.infoCalls != 2 {
		t.Errorf("info calls = %d", actions.infoCalls)
	}
}

func TestLoad_StatusError(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{info: models.GroupInfoResult{Status: http.StatusInternalServerError}}
	s, _, _ := newTestSync(t, actions, fakeUploader{}, nil)

	_, _, err := s.Load(context.Background(), "g1")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Errorf("err = %v", err)
	}
}
