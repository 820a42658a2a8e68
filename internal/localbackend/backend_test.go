// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package localbackend

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (p *recordingPublisher) PublishChange(_ context.Context, ev models.ChangeEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func newTestBackend(t *testing.T) (*Backend, *recordingPublisher) {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "grouphub.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	pub := &recordingPublisher{}
	return New(db, pub), pub
}

func seedGroup(t *testing.T, b *Backend, id, owner string) {
	t.Helper()
	if _, err := b.CreateGroup(context.Background(), models.Group{ID: id, Name: "Group " + id, Category: "tech", UserID: owner}); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
}

func TestGetGroupInfo(t *testing.T) {
	t.Parallel()
	b, _ := newTestBackend(t)
	ctx := context.Background()

	res, err := b.GetGroupInfo(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if !res.NotFound() || res.Group != nil {
		t.Errorf("missing group = %+v, want 404", res)
	}

	seedGroup(t, b, "g1", "owner")
	res, err = b.GetGroupInfo(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != http.StatusOK || res.Group.UserID != "owner" || res.Group.Gallery == nil {
		t.Errorf("GetGroupInfo = %+v", res)
	}
}

func TestUpdateGroupSettings(t *testing.T) {
	t.Parallel()
	b, _ := newTestBackend(t)
	ctx := context.Background()
	seedGroup(t, b, "g1", "owner")

	tests := []struct {
		name   string
		field  models.FieldTag
		value  string
		status int
	}{
		{"name", models.FieldName, "Alpha", http.StatusOK},
		{"blank name", models.FieldName, "  ", http.StatusBadRequest},
		{"thumbnail", models.FieldImage, "thumb-uuid", http.StatusOK},
		{"icon", models.FieldIcon, "icon-uuid", http.StatusOK},
		{"json doc", models.FieldJSONDescription, `{"type":"doc"}`, http.StatusOK},
		{"bad json doc", models.FieldJSONDescription, `{"type":`, http.StatusBadRequest},
		{"unknown", models.FieldTag("COLOR"), "red", http.StatusBadRequest},
	}
	for _, tt := range tests {
		res, err := b.UpdateGroupSettings(ctx, "g1", tt.field, tt.value, "/group/g1/settings")
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if res.Status != tt.status {
			t.Errorf("%s: status = %d, want %d (%s)", tt.name, res.Status, tt.status, res.Message)
		}
	}

	info, _ := b.GetGroupInfo(ctx, "g1")
	g := info.Group
	if g.Name != "Alpha" || g.Thumbnail != "thumb-uuid" || g.Icon != "icon-uuid" {
		t.Errorf("group after updates = %+v", g)
	}
	var doc map[string]string
	if err := json.Unmarshal(g.JSONDescription, &doc); err != nil || doc["type"] != "doc" {
		t.Errorf("JSONDescription = %s", g.JSONDescription)
	}

	res, _ := b.UpdateGroupSettings(ctx, "nope", models.FieldName, "x", "")
	if res.Status != http.StatusNotFound {
		t.Errorf("unknown group status = %d", res.Status)
	}
}

func TestGallery(t *testing.T) {
	t.Parallel()
	b, _ := newTestBackend(t)
	ctx := context.Background()
	seedGroup(t, b, "g1", "owner")

	for _, m := range []models.Media{
		models.ImageMedia("img-1"),
		models.EmbedMedia("https://www.youtube.com/embed/abc"),
		models.ImageMedia("img-2"),
	} {
		res, err := b.UpdateGroupGallery(ctx, "g1", m)
		if err != nil || !res.OK() {
			t.Fatalf("UpdateGroupGallery(%v) = %+v, %v", m, res, err)
		}
	}

	res, _ := b.UpdateGroupGallery(ctx, "g1", models.Media{Kind: models.MediaKindImage})
	if res.Status != http.StatusBadRequest {
		t.Errorf("invalid media status = %d", res.Status)
	}

	info, _ := b.GetGroupInfo(ctx, "g1")
	gallery := info.Group.Gallery
	if len(gallery) != 3 || gallery[0].Ref != "img-1" || gallery[1].Kind != models.MediaKindEmbed || gallery[2].Ref != "img-2" {
		t.Fatalf("gallery = %+v", gallery)
	}

	rm, err := b.RemoveGroupGallery(ctx, "g1", gallery[1].ID)
	if err != nil || !rm.OK() {
		t.Fatalf("RemoveGroupGallery = %+v, %v", rm, err)
	}
	rm, _ = b.RemoveGroupGallery(ctx, "g1", gallery[1].ID)
	if rm.Status != http.StatusNotFound {
		t.Errorf("second remove status = %d", rm.Status)
	}
}

func TestSearchAndExplore(t *testing.T) {
	t.Parallel()
	b, _ := newTestBackend(t)
	ctx := context.Background()

	for i, name := range []string{"Go Study", "Rust Club", "Golf 100%"} {
		if _, err := b.CreateGroup(ctx, models.Group{Name: name, Category: "cat" + string(rune('a'+i)), UserID: "u"}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := b.SearchGroups(ctx, models.SearchKindGroups, "go")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Groups) != 2 {
		t.Errorf("search go = %d groups, want 2", len(res.Groups))
	}

	res, _ = b.SearchGroups(ctx, models.SearchKindGroups, "%")
	if len(res.Groups) != 1 || res.Groups[0].Name != "Golf 100%" {
		t.Errorf("literal %% search = %+v", res.Groups)
	}

	res, _ = b.SearchGroups(ctx, models.SearchKindPosts, "go")
	if res.Status != http.StatusOK || len(res.Groups) != 0 {
		t.Errorf("posts search = %+v", res)
	}

	explore, _ := b.GetExploreGroup(ctx, "", 0)
	if len(explore.Groups) != 3 {
		t.Errorf("explore page 0 = %d groups", len(explore.Groups))
	}
	explore, _ = b.GetExploreGroup(ctx, "", 1)
	if len(explore.Groups) != 0 {
		t.Errorf("explore page 1 = %d groups", len(explore.Groups))
	}
	explore, _ = b.GetExploreGroup(ctx, "catb", 0)
	if len(explore.Groups) != 1 || explore.Groups[0].Name != "Rust Club" {
		t.Errorf("explore by category = %+v", explore.Groups)
	}
}

func TestMembers(t *testing.T) {
	t.Parallel()
	b, _ := newTestBackend(t)
	ctx := context.Background()
	seedGroup(t, b, "g1", "owner")

	if err := b.AddMember(ctx, models.GroupMember{GroupID: "g1", UserID: "u2", FirstName: "Ada"}); err != nil {
		t.Fatal(err)
	}
	res, err := b.GetAllGroupMembers(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Members) != 2 {
		t.Fatalf("members = %+v", res.Members)
	}
}

func TestMessages(t *testing.T) {
	t.Parallel()
	b, pub := newTestBackend(t)
	ctx := context.Background()

	if res, _ := b.SendMessage(ctx, "alice", "bob", "m1", "hi bob"); !res.OK() {
		t.Fatalf("send m1: %+v", res)
	}
	if res, _ := b.SendMessage(ctx, "bob", "alice", "m2", "hi alice"); !res.OK() {
		t.Fatalf("send m2: %+v", res)
	}
	if res, _ := b.SendMessage(ctx, "carol", "bob", "m3", "other chat"); !res.OK() {
		t.Fatalf("send m3: %+v", res)
	}
	// Retry with the same id is idempotent.
	if res, _ := b.SendMessage(ctx, "alice", "bob", "m1", "hi bob"); !res.OK() {
		t.Fatalf("resend m1: %+v", res)
	}
	if res, _ := b.SendMessage(ctx, "alice", "bob", "m4", "   "); res.Status != http.StatusBadRequest {
		t.Errorf("empty message status = %d", res.Status)
	}

	res, err := b.GetAllUserMessages(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Messages) != 2 || res.Messages[0].ID != "m1" || res.Messages[1].ID != "m2" {
		t.Errorf("conversation = %+v", res.Messages)
	}

	if len(pub.events) != 3 {
		t.Fatalf("published %d events, want 3", len(pub.events))
	}
	ev := pub.events[0]
	if ev.EventType != models.ChangeInsert || ev.Table != models.MessagesTable || ev.New.ID != "m1" {
		t.Errorf("first event = %+v", ev)
	}

	del, err := b.DeleteMessage(ctx, "alice", "m1")
	if err != nil || !del.OK() {
		t.Fatalf("DeleteMessage = %+v, %v", del, err)
	}
	last := pub.events[len(pub.events)-1]
	if last.EventType != models.ChangeDelete || last.Row().ID != "m1" {
		t.Errorf("delete event = %+v", last)
	}
	if del, _ := b.DeleteMessage(ctx, "bob", "m2x"); del.Status != http.StatusNotFound {
		t.Errorf("delete missing status = %d", del.Status)
	}
}

func TestCustomDomain(t *testing.T) {
	t.Parallel()
	b, _ := newTestBackend(t)
	ctx := context.Background()
	seedGroup(t, b, "g1", "owner")
	seedGroup(t, b, "g2", "owner")

	cfg, err := b.GetDomainConfig(ctx, "g1")
	if err != nil || cfg.Config.Status != models.DomainStatusNone {
		t.Fatalf("initial config = %+v, %v", cfg, err)
	}

	tests := []struct {
		group, domain string
		status        int
	}{
		{"g1", "not a domain", http.StatusBadRequest},
		{"g1", "Learn.Example.com", http.StatusOK},
		{"g2", "learn.example.com", http.StatusConflict},
		{"missing", "other.example.com", http.StatusNotFound},
	}
	for _, tt := range tests {
		res, err := b.AddCustomDomain(ctx, tt.group, tt.domain)
		if err != nil {
			t.Fatalf("AddCustomDomain(%s, %s): %v", tt.group, tt.domain, err)
		}
		if res.Status != tt.status {
			t.Errorf("AddCustomDomain(%s, %s) status = %d, want %d", tt.group, tt.domain, res.Status, tt.status)
		}
	}

	cfg, _ = b.GetDomainConfig(ctx, "g1")
	if cfg.Config.Domain != "learn.example.com" || cfg.Config.Status != models.DomainStatusPending || len(cfg.Config.Records) != 2 {
		t.Errorf("config after add = %+v", cfg.Config)
	}
}
