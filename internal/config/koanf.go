// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/grouphub/config.yaml",
	"/etc/grouphub/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			TokenTTL:        24 * time.Hour,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Backend: BackendConfig{
			Mode:      BackendModeStandalone,
			Timeout:   15 * time.Second,
			RateLimit: 20,
			RateBurst: 40,
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
			SQLitePath: "/data/grouphub.db",
			UploadDir:  "/data/uploads",
		},
		Realtime: RealtimeConfig{
			Transport:       "nats",
			URL:             "nats://127.0.0.1:4222",
			EmbeddedServer:  true,
			Host:            "127.0.0.1",
			Port:            4222,
			PresenceChannel: "tracking",
			ChangesChannel:  "table-db-changes",
			MaxReconnects:   -1,
			ReconnectWait:   2 * time.Second,
			Heartbeat:       15 * time.Second,
		},
		Store: StoreConfig{
			Driver: "memory",
			Path:   "/data/store",
		},
		Search: SearchConfig{
			Debounce: time.Second,
			Kind:     "GROUPS",
		},
		Chat: ChatConfig{
			FilterParticipants: true,
			Dedupe:             true,
		},
		Settings: SettingsConfig{
			RedirectPath:    "/group/%s/settings",
			CreateGroupPath: "/group/create",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and environment
// variables, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields turns comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"casbin_model_path":   "security.casbin_model_path",
	"casbin_policy_path":  "security.casbin_policy_path",

	"backend_mode":                 "backend.mode",
	"backend_url":                  "backend.url",
	"backend_api_key":              "backend.api_key",
	"backend_upload_url":           "backend.upload_url",
	"backend_timeout":              "backend.timeout",
	"backend_rate_limit":           "backend.rate_limit",
	"backend_rate_burst":           "backend.rate_burst",
	"backend_breaker_max_requests": "backend.circuit_breaker.max_requests",
	"backend_breaker_interval":     "backend.circuit_breaker.interval",
	"backend_breaker_timeout":      "backend.circuit_breaker.timeout",
	"backend_breaker_failures":     "backend.circuit_breaker.failure_threshold",
	"sqlite_path":                  "backend.sqlite_path",
	"upload_dir":                   "backend.upload_dir",
	"seed_path":                    "backend.seed_path",

	"realtime_transport":  "realtime.transport",
	"nats_url":            "realtime.url",
	"nats_embedded":       "realtime.embedded_server",
	"nats_host":           "realtime.host",
	"nats_port":           "realtime.port",
	"presence_channel":    "realtime.presence_channel",
	"changes_channel":     "realtime.changes_channel",
	"nats_max_reconnects": "realtime.max_reconnects",
	"nats_reconnect_wait": "realtime.reconnect_wait",
	"presence_heartbeat":  "realtime.heartbeat",

	"store_driver": "store.driver",
	"store_path":   "store.path",

	"search_debounce": "search.debounce",
	"search_kind":     "search.kind",

	"chat_filter_participants": "chat.filter_participants",
	"chat_dedupe":              "chat.dedupe",

	"settings_redirect_path": "settings.redirect_path",
	"create_group_path":      "settings.create_group_path",

	"cache_ttl": "cache.ttl",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables onto koanf keys.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
