// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/auth"
	"github.com/tomtom215/grouphub/internal/authz"
	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/cache"
	"github.com/tomtom215/grouphub/internal/chatfeed"
	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/customdomain"
	"github.com/tomtom215/grouphub/internal/gallery"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
	"github.com/tomtom215/grouphub/internal/presence"
	"github.com/tomtom215/grouphub/internal/realtime"
	"github.com/tomtom215/grouphub/internal/session"
	"github.com/tomtom215/grouphub/internal/settings"
	"github.com/tomtom215/grouphub/internal/store"
	ws "github.com/tomtom215/grouphub/internal/websocket"
)

const testOrigin = "http://app.test"

type settingsCall struct {
	Field models.FieldTag
	Value string
}

// fakeBackend is an in-memory backend.Actions with one group "g1" owned
// by alice, with bob as a member.
type fakeBackend struct {
	mu       sync.Mutex
	groups   map[string]*models.Group
	members  map[string][]models.GroupMember
	messages []models.Message
	domains  map[string]*models.DomainConfig
	updates  []settingsCall
	sendErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		groups: map[string]*models.Group{
			"g1": {ID: "g1", Name: "Go Study", UserID: "alice"},
		},
		members: map[string][]models.GroupMember{
			"g1": {
				{UserID: "bob", GroupID: "g1", FirstName: "Bob"},
				{UserID: "carol", GroupID: "g1", FirstName: "Carol"},
			},
		},
		domains: map[string]*models.DomainConfig{},
	}
}

func (f *fakeBackend) GetGroupInfo(_ context.Context, groupID string) (models.GroupInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return models.GroupInfoResult{Status: http.StatusNotFound}, nil
	}
	cp := *g
	return models.GroupInfoResult{Status: http.StatusOK, Group: &cp}, nil
}

func (f *fakeBackend) UpdateGroupSettings(_ context.Context, groupID string, field models.FieldTag, value, _ string) (models.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, settingsCall{Field: field, Value: value})
	if field == models.FieldName {
		f.groups[groupID].Name = value
	}
	return models.StatusResult{Status: http.StatusOK}, nil
}

func (f *fakeBackend) UpdateGroupGallery(_ context.Context, groupID string, media models.Media) (models.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	g.Gallery = append(g.Gallery, media)
	return models.StatusResult{Status: http.StatusOK}, nil
}

func (f *fakeBackend) RemoveGroupGallery(context.Context, string, string) (models.StatusResult, error) {
	return models.StatusResult{Status: http.StatusOK}, nil
}

func (f *fakeBackend) SearchGroups(_ context.Context, kind models.SearchKind, term string) (models.GroupsResult, error) {
	return models.GroupsResult{Status: http.StatusOK, Groups: []models.GroupSummary{{ID: "g1", Name: string(kind) + ":" + term}}}, nil
}

func (f *fakeBackend) GetExploreGroup(_ context.Context, term string, page int) (models.GroupsResult, error) {
	return models.GroupsResult{Status: http.StatusOK, Groups: []models.GroupSummary{{ID: fmt.Sprintf("%s-%d", term, page)}}}, nil
}

func (f *fakeBackend) GetAllGroupMembers(_ context.Context, groupID string) (models.MembersResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[groupID]; !ok {
		return models.MembersResult{Status: http.StatusNotFound}, nil
	}
	return models.MembersResult{Status: http.StatusOK, Members: append([]models.GroupMember(nil), f.members[groupID]...)}, nil
}

func (f *fakeBackend) GetAllUserMessages(context.Context, string, string) (models.MessagesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.MessagesResult{Status: http.StatusOK, Messages: append([]models.Message(nil), f.messages...)}, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, senderID, receiverID, messageID, body string) (models.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return models.StatusResult{}, f.sendErr
	}
	f.messages = append(f.messages, models.Message{ID: messageID, Message: body, SenderID: senderID, ReceiverID: receiverID})
	return models.StatusResult{Status: http.StatusOK}, nil
}

func (f *fakeBackend) DeleteMessage(_ context.Context, senderID, messageID string) (models.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, msg := range f.messages {
		if msg.ID == messageID && msg.SenderID == senderID {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return models.StatusResult{Status: http.StatusOK}, nil
		}
	}
	return models.StatusResult{Status: http.StatusNotFound}, nil
}

func (f *fakeBackend) GetDomainConfig(_ context.Context, groupID string) (models.DomainConfigResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.DomainConfigResult{Status: http.StatusOK, Config: f.domains[groupID]}, nil
}

func (f *fakeBackend) AddCustomDomain(_ context.Context, groupID, domain string) (models.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.domains[groupID] = &models.DomainConfig{GroupID: groupID, Domain: domain, Status: models.DomainStatusPending}
	return models.StatusResult{Status: http.StatusOK}, nil
}

func (f *fakeBackend) settingsUpdates() []settingsCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]settingsCall(nil), f.updates...)
}

var _ backend.Actions = (*fakeBackend)(nil)

type nameUploader struct{}

func (nameUploader) Upload(_ context.Context, f backend.File) (models.UploadResult, error) {
	return models.UploadResult{UUID: "up-" + f.Name}, nil
}

type staticOnline []models.OnlineMember

func (s staticOnline) OnlineMembers() []models.OnlineMember { return s }

type probe bool

func (p probe) Connected() bool { return bool(p) }

type testEnv struct {
	server  *httptest.Server
	backend *fakeBackend
	handler *Handler
	jwt     *auth.JWTManager
	hub     *ws.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret-with-enough-length-for-hmac-256",
			TokenTTL:          time.Hour,
			CORSOrigins:       []string{testOrigin},
			RateLimitDisabled: true,
		},
		Backend:  config.BackendConfig{Mode: config.BackendModeStandalone},
		Settings: config.SettingsConfig{RedirectPath: "/group/%s/settings", CreateGroupPath: "/group/create"},
	}

	fb := newFakeBackend()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	hub := ws.NewHub()
	notifier := notify.Scoped{Fallback: hub.Notifier()}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}
	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(enforcer.Close)

	bus := realtime.NewMemoryBus(nil)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()

	sessions := session.NewManager(session.Deps{
		Actions:     fb,
		Presence:    func() presence.Channel { return bus.Presence("tracking", time.Hour) },
		Changes:     bus.Changes("table-db-changes"),
		Stores:      store.MemoryFactory{},
		SearchKind:  models.SearchKindGroups,
		SearchDelay: 10 * time.Millisecond,
		Chat:        chatfeed.Options{FilterParticipants: true, Dedupe: true},
	})

	handler := NewHandler(Deps{
		Config:   cfg,
		Actions:  fb,
		Settings: settings.NewSynchronizer(fb, nameUploader{}, c, notifier, Navigator(), cfg.Settings),
		Gallery:  gallery.NewMutator(fb, nameUploader{}, c, notifier),
		Domains:  customdomain.NewManager(fb, c, notifier),
		Roster:   presence.NewRoster(fb),
		Online:   staticOnline{{ID: "carol"}},
		Sessions: sessions,
		Hub:      hub,
		JWT:      jwtManager,
		Realtime: probe(true),
		Cache:    c,
		Version:  "test",
	})
	router := NewRouter(handler,
		auth.NewMiddleware(jwtManager),
		authz.NewMiddleware(authz.NewService(enforcer, fb, time.Minute)),
		NewChiMiddlewareFromConfig(cfg.Security),
		true,
	)

	server := httptest.NewServer(router.SetupChi())
	t.Cleanup(func() {
		server.Close()
		sessions.CloseAll()
		cancel()
		<-done
	})

	return &testEnv{server: server, backend: fb, handler: handler, jwt: jwtManager, hub: hub}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(userID, userID)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

// envelope is models.APIResponse with raw data for per-test decoding.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, userID, contentType string, body io.Reader) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, env
}

func (e *testEnv) doJSON(t *testing.T, method, path, userID string, payload interface{}) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(data)
	}
	return e.do(t, method, path, userID, "application/json", body)
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}
