// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Search.Debounce != time.Second {
		t.Errorf("Search.Debounce = %v, want 1s", cfg.Search.Debounce)
	}
	if cfg.Realtime.PresenceChannel != "tracking" {
		t.Errorf("Realtime.PresenceChannel = %q, want tracking", cfg.Realtime.PresenceChannel)
	}
	if cfg.Realtime.ChangesChannel != "table-db-changes" {
		t.Errorf("Realtime.ChangesChannel = %q, want table-db-changes", cfg.Realtime.ChangesChannel)
	}
	if cfg.Backend.Mode != BackendModeStandalone {
		t.Errorf("Backend.Mode = %q, want standalone", cfg.Backend.Mode)
	}
	if !cfg.Chat.Dedupe || !cfg.Chat.FilterParticipants {
		t.Error("chat dedupe and participant filtering should default to true")
	}
	if cfg.Settings.CreateGroupPath != "/group/create" {
		t.Errorf("Settings.CreateGroupPath = %q", cfg.Settings.CreateGroupPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SEARCH_DEBOUNCE", "250ms")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REALTIME_TRANSPORT", "memory")
	t.Setenv("CHAT_DEDUPE", "false")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Search.Debounce != 250*time.Millisecond {
		t.Errorf("Search.Debounce = %v, want 250ms", cfg.Search.Debounce)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Realtime.Transport != "memory" {
		t.Errorf("Realtime.Transport = %q", cfg.Realtime.Transport)
	}
	if cfg.Chat.Dedupe {
		t.Error("Chat.Dedupe should be overridden to false")
	}
}

func TestLoadWithKoanf_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
backend:
  mode: remote
  url: https://backend.example.com
realtime:
  transport: nats
  embedded_server: false
  url: nats://nats.internal:4222
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Backend.Mode != BackendModeRemote || cfg.Backend.URL != "https://backend.example.com" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Realtime.EmbeddedServer {
		t.Error("EmbeddedServer should be false from file")
	}
	// Environment wins over the file.
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadWithKoanf_InvalidFails(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("BACKEND_MODE", "carrier-pigeon")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for unknown backend mode")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"NATS_URL":        "realtime.url",
		"search_debounce": "search.debounce",
		"JWT_SECRET":      "security.jwt_secret",
		"PATH":            "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
