// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

// Package customdomain reads and changes the custom domain of a group.
// Writes never patch the cached config; they invalidate it and read it
// again.
package customdomain

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/grouphub/internal/cache"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
	"github.com/tomtom215/grouphub/internal/validation"
)

// CacheTag is the query tag domain configs are cached under.
const CacheTag = "domain-config"

// Actions are the domain server actions.
type Actions interface {
	GetDomainConfig(ctx context.Context, groupID string) (models.DomainConfigResult, error)
	AddCustomDomain(ctx context.Context, groupID, domain string) (models.StatusResult, error)
}

// StatusError carries a non-success action status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d", e.Status)
}

// Manager fetches and mutates group domain configs through a cache.
type Manager struct {
	actions  Actions
	cache    cache.Querier
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewManager returns a manager.
func NewManager(actions Actions, c cache.Querier, n notify.Notifier) *Manager {
	return &Manager{
		actions:  actions,
		cache:    c,
		notifier: n,
		logger:   logging.WithComponent("customdomain"),
	}
}

// Get returns the group's domain config. A group without a domain gets a
// config with status "none".
func (m *Manager) Get(ctx context.Context, groupID string) (models.DomainConfig, error) {
	cfg, _, err := cache.Fetch(ctx, m.cache, cache.Key(CacheTag, groupID), func(ctx context.Context) (models.DomainConfig, error) {
		res, err := m.actions.GetDomainConfig(ctx, groupID)
		if err != nil {
			return models.DomainConfig{}, err
		}
		if res.Status != http.StatusOK {
			return models.DomainConfig{}, &StatusError{Status: res.Status}
		}
		if res.Config == nil {
			return models.DomainConfig{GroupID: groupID, Status: models.DomainStatusNone}, nil
		}
		return *res.Config, nil
	})
	if err != nil {
		return models.DomainConfig{}, fmt.Errorf("get domain config for %s: %w", groupID, err)
	}
	return cfg, nil
}

// NormalizeDomain lower-cases the host and strips a trailing dot.
func NormalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// Add attaches domain to the group. However the call ends, the cached
// config is invalidated and read again exactly once; the fresh config is
// returned alongside the add error, if any.
func (m *Manager) Add(ctx context.Context, groupID, domain string) (models.DomainConfig, error) {
	domain = NormalizeDomain(domain)
	if verr := validation.ValidateVar("domain", domain, "required,fqdn"); verr != nil {
		return models.DomainConfig{}, verr
	}

	log := m.logger.With().Str("group_id", groupID).Str("domain", domain).Logger()

	res, addErr := m.actions.AddCustomDomain(ctx, groupID, domain)
	switch {
	case addErr != nil:
		log.Warn().Err(addErr).Msg("Add custom domain failed")
		m.notifier.Notify(ctx, notify.Error("Domain not added", "The domain could not be added. Try again."))
		addErr = fmt.Errorf("add custom domain: %w", addErr)
	case !res.OK():
		log.Warn().Int("status", res.Status).Str("message", res.Message).Msg("Add custom domain rejected")
		msg := res.Message
		if msg == "" {
			msg = "The domain could not be added."
		}
		m.notifier.Notify(ctx, notify.Error("Domain not added", msg))
		addErr = &StatusError{Status: res.Status, Message: res.Message}
	default:
		msg := res.Message
		if msg == "" {
			msg = "Add the DNS records shown to finish setup."
		}
		m.notifier.Notify(ctx, notify.Success("Domain added", msg))
		log.Info().Msg("Custom domain added")
	}
	metrics.DomainAdds.WithLabelValues(metrics.Outcome(addErr == nil)).Inc()

	m.cache.Invalidate(cache.Key(CacheTag, groupID))
	cfg, err := m.Get(ctx, groupID)
	if addErr != nil {
		return cfg, addErr
	}
	if err != nil {
		// The domain was added; only the status view is stale.
		log.Warn().Err(err).Msg("Refetch after domain add failed")
		return models.DomainConfig{GroupID: groupID, Domain: domain, Status: models.DomainStatusPending}, nil
	}
	return cfg, nil
}
