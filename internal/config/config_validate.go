// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	minJWTSecretLength = 32
	minDebounce        = 50 * time.Millisecond
	maxDebounce        = 10 * time.Second
)

// Validate checks the loaded configuration for consistency.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateBackend,
		c.validateRealtime,
		c.validateStore,
		c.validateSearch,
		c.validateSettings,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether production checks apply.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	secret := c.Security.JWTSecret
	if secret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if secret != "" && len(secret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateBackend() error {
	switch c.Backend.Mode {
	case BackendModeRemote:
		if err := validateHTTPURL(c.Backend.URL); err != nil {
			return fmt.Errorf("BACKEND_URL is invalid: %w", err)
		}
		if c.Backend.UploadURL != "" {
			if err := validateHTTPURL(c.Backend.UploadURL); err != nil {
				return fmt.Errorf("BACKEND_UPLOAD_URL is invalid: %w", err)
			}
		}
	case BackendModeStandalone:
		if c.Backend.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required in standalone mode")
		}
		if c.Backend.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required in standalone mode")
		}
	default:
		return fmt.Errorf("BACKEND_MODE must be %q or %q, got %q", BackendModeRemote, BackendModeStandalone, c.Backend.Mode)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("BACKEND_RATE_LIMIT must not be negative")
	}
	if c.Backend.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("BACKEND_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateRealtime() error {
	switch c.Realtime.Transport {
	case "memory":
	case "nats":
		if !c.Realtime.EmbeddedServer {
			u, err := url.Parse(c.Realtime.URL)
			if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") || u.Host == "" {
				return fmt.Errorf("NATS_URL must be a nats:// or tls:// URL, got %q", c.Realtime.URL)
			}
		} else if c.Realtime.Port < 1 || c.Realtime.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("REALTIME_TRANSPORT must be nats or memory, got %q", c.Realtime.Transport)
	}

	if c.Realtime.PresenceChannel == "" || c.Realtime.ChangesChannel == "" {
		return fmt.Errorf("presence and changes channel names are required")
	}
	if c.Realtime.PresenceChannel == c.Realtime.ChangesChannel {
		return fmt.Errorf("presence and changes channels must differ")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "memory":
		return nil
	case "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the badger store")
		}
		return nil
	default:
		return fmt.Errorf("STORE_DRIVER must be memory or badger, got %q", c.Store.Driver)
	}
}

func (c *Config) validateSearch() error {
	if c.Search.Debounce < minDebounce || c.Search.Debounce > maxDebounce {
		return fmt.Errorf("SEARCH_DEBOUNCE must be between %s and %s", minDebounce, maxDebounce)
	}
	switch strings.ToUpper(c.Search.Kind) {
	case "GROUPS", "POSTS":
		return nil
	default:
		return fmt.Errorf("SEARCH_KIND must be GROUPS or POSTS, got %q", c.Search.Kind)
	}
}

func (c *Config) validateSettings() error {
	if !strings.Contains(c.Settings.RedirectPath, "%s") {
		return fmt.Errorf("SETTINGS_REDIRECT_PATH must contain %%s for the group id")
	}
	if !strings.HasPrefix(c.Settings.CreateGroupPath, "/") {
		return fmt.Errorf("CREATE_GROUP_PATH must be an absolute path")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not recognized", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is missing")
	}
	return nil
}
