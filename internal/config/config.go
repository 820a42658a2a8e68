// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (koanf v2):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables mapped through envTransformFunc
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Backend  BackendConfig  `koanf:"backend"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Store    StoreConfig    `koanf:"store"`
	Search   SearchConfig   `koanf:"search"`
	Chat     ChatConfig     `koanf:"chat"`
	Settings SettingsConfig `koanf:"settings"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig configures authentication, authorization and inbound limits.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CasbinModelPath   string        `koanf:"casbin_model_path"`
	CasbinPolicyPath  string        `koanf:"casbin_policy_path"`
}

// Backend modes.
const (
	BackendModeRemote     = "remote"
	BackendModeStandalone = "standalone"
)

// BackendConfig selects and configures the server-action backend.
//
// In remote mode the hosted backend is reached over HTTP. In standalone mode
// a local SQLite database and upload directory implement the same actions.
type BackendConfig struct {
	Mode           string               `koanf:"mode"`
	URL            string               `koanf:"url"`
	APIKey         string               `koanf:"api_key"`
	UploadURL      string               `koanf:"upload_url"`
	Timeout        time.Duration        `koanf:"timeout"`
	RateLimit      float64              `koanf:"rate_limit"`
	RateBurst      int                  `koanf:"rate_burst"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	SQLitePath     string               `koanf:"sqlite_path"`
	UploadDir      string               `koanf:"upload_dir"`
	// SeedPath optionally names a JSON file of groups and members loaded
	// into the standalone database at startup.
	SeedPath string `koanf:"seed_path"`
}

// CircuitBreakerConfig configures gobreaker around outbound calls.
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// RealtimeConfig configures the pub/sub transport for presence and change feeds.
type RealtimeConfig struct {
	// Transport is "nats" or "memory" (in-process, single instance only).
	Transport       string        `koanf:"transport"`
	URL             string        `koanf:"url"`
	EmbeddedServer  bool          `koanf:"embedded_server"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	PresenceChannel string        `koanf:"presence_channel"`
	ChangesChannel  string        `koanf:"changes_channel"`
	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	Heartbeat       time.Duration `koanf:"heartbeat"`
}

// StoreConfig selects the reactive store backing sessions.
type StoreConfig struct {
	Driver string `koanf:"driver"` // memory or badger
	Path   string `koanf:"path"`
}

// SearchConfig configures the search debouncer.
type SearchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
	Kind     string        `koanf:"kind"`
}

// ChatConfig configures the realtime chat feed.
type ChatConfig struct {
	FilterParticipants bool `koanf:"filter_participants"`
	Dedupe             bool `koanf:"dedupe"`
}

// SettingsConfig configures redirect targets used by the settings synchronizer.
type SettingsConfig struct {
	// RedirectPath is a format string receiving the group id.
	RedirectPath    string `koanf:"redirect_path"`
	CreateGroupPath string `koanf:"create_group_path"`
}

// CacheConfig configures the query cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration using koanf (defaults, file, environment).
func Load() (*Config, error) {
	return LoadWithKoanf()
}
