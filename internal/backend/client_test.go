// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/models"
)

func testBackendConfig(url string) config.BackendConfig {
	return config.BackendConfig{
		URL:       url,
		UploadURL: url + "/upload",
		APIKey:    "secret",
		Timeout:   5 * time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 2,
		},
	}
}

func TestHTTPClient_UpdateGroupSettings(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotBody settingsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"status":200,"message":"updated"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testBackendConfig(srv.URL))
	res, err := c.UpdateGroupSettings(context.Background(), "g1", models.FieldName, "Alpha", "/group/g1/settings")
	if err != nil {
		t.Fatalf("UpdateGroupSettings: %v", err)
	}
	if !res.OK() || res.Message != "updated" {
		t.Errorf("result = %+v", res)
	}
	if gotPath != "/actions/onUpDateGroupSettings" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	want := settingsRequest{GroupID: "g1", Type: models.FieldName, Content: "Alpha", Path: "/group/g1/settings"}
	if gotBody != want {
		t.Errorf("body = %+v, want %+v", gotBody, want)
	}
}

func TestHTTPClient_ActionStatusIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":404}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testBackendConfig(srv.URL))
	res, err := c.GetGroupInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NotFound() {
		t.Errorf("status = %d, want 404", res.Status)
	}
}

func TestHTTPClient_DecodesPayloads(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/actions/onSearchGroups":
			_, _ = w.Write([]byte(`{"status":200,"groups":[{"id":"g1","name":"Go"}]}`))
		case "/actions/onGetAllUserMessages":
			_, _ = w.Write([]byte(`{"status":200,"messages":[{"id":"m1","message":"hi","senderid":"a","recieverId":"b"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(testBackendConfig(srv.URL))
	ctx := context.Background()

	groups, err := c.SearchGroups(ctx, models.SearchKindGroups, "go")
	if err != nil || len(groups.Groups) != 1 || groups.Groups[0].Name != "Go" {
		t.Errorf("SearchGroups = %+v, %v", groups, err)
	}

	msgs, err := c.GetAllUserMessages(ctx, "a", "b")
	if err != nil || len(msgs.Messages) != 1 || msgs.Messages[0].ReceiverID != "b" {
		t.Errorf("GetAllUserMessages = %+v, %v", msgs, err)
	}
}

func TestHTTPClient_TransportErrorOpensCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(testBackendConfig(srv.URL))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.GetDomainConfig(ctx, "g1")
		var te *TransportError
		if !errors.As(err, &te) || te.StatusCode != http.StatusBadGateway {
			t.Fatalf("call %d: err = %v, want TransportError 502", i, err)
		}
	}

	_, err := c.GetDomainConfig(ctx, "g1")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
	if c.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q", c.BreakerState())
	}
}

func TestHTTPClient_CanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":200}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testBackendConfig(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		if _, err := c.AddCustomDomain(ctx, "g1", "learn.example.com"); err == nil {
			t.Fatal("expected error for canceled context")
		}
	}
	if c.BreakerState() != "closed" {
		t.Errorf("cancellations tripped the breaker: %s", c.BreakerState())
	}
}

func TestHTTPUploader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if hdr.Filename != "a.png" || string(data) != "PNGDATA" {
			http.Error(w, "unexpected file", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"uuid":"0b6f-upload"}`))
	}))
	defer srv.Close()

	cfg := testBackendConfig(srv.URL)
	cfg.UploadURL = srv.URL
	u := NewHTTPUploader(cfg)

	res, err := u.Upload(context.Background(), File{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("PNGDATA")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.UUID != "0b6f-upload" {
		t.Errorf("UUID = %q", res.UUID)
	}
}

func TestHTTPUploader_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too large", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	cfg := testBackendConfig(srv.URL)
	cfg.UploadURL = srv.URL
	u := NewHTTPUploader(cfg)

	_, err := u.Upload(context.Background(), File{Name: "big.png", Body: strings.NewReader("x")})
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
}
