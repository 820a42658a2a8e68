// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/grouphub/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Roles within a group.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Objects and actions checked by the HTTP layer.
const (
	ObjectSettings = "settings"
	ObjectGallery  = "gallery"
	ObjectDomain   = "domain"
	ObjectMembers  = "members"

	ActionRead  = "read"
	ActionWrite = "write"
)

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// ModelPath is the path to the Casbin model file.
	// If empty, uses embedded model.
	ModelPath string

	// PolicyPath is the path to the Casbin policy file.
	// If empty, uses embedded policy.
	PolicyPath string

	// CacheTTL is how long to cache decisions. Zero disables the cache.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{CacheTTL: time.Minute}
}

// Enforcer wraps a Casbin enforcer whose domains are group IDs.
//
// Permissions (role, object, action) come from the policy file; the
// per-group role assignments are replaced wholesale by SetGroupRoles.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer creates a new authorization enforcer.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	var m model.Model
	var err error
	if config.ModelPath != "" && fileExists(config.ModelPath) {
		m, err = model.NewModelFromFile(config.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if config.PolicyPath != "" && fileExists(config.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(config.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{enforcer: enforcer}
	if config.CacheTTL > 0 {
		e.cache = newEnforcementCache(config.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		rule := make([]interface{}, 0, len(parts)-1)
		for _, p := range parts[1:] {
			rule = append(rule, p)
		}

		switch {
		case parts[0] == "p" && len(rule) == 4:
			if _, err := enforcer.AddPolicy(rule...); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case parts[0] == "g" && len(rule) == 3:
			if _, err := enforcer.AddGroupingPolicy(rule...); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Enforce checks whether userID may perform action on object in groupID.
func (e *Enforcer) Enforce(userID, groupID, object, action string) (bool, error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(groupID, userID, object, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(userID, groupID, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(groupID, userID, object, action, allowed)
	}

	result := "denied"
	if allowed {
		result = "allowed"
	}
	metrics.AuthzDecisions.WithLabelValues(object, action, result).Inc()

	return allowed, nil
}

// SetGroupRoles replaces every role assignment in groupID: ownerID becomes
// the owner and each of memberIDs a member. An empty ownerID leaves the
// group without an owner.
func (e *Enforcer) SetGroupRoles(groupID, ownerID string, memberIDs []string) error {
	if _, err := e.enforcer.RemoveFilteredGroupingPolicy(2, groupID); err != nil {
		return fmt.Errorf("failed to clear roles for %s: %w", groupID, err)
	}

	rules := make([][]string, 0, len(memberIDs)+1)
	if ownerID != "" {
		rules = append(rules, []string{ownerID, RoleOwner, groupID})
	}
	seen := map[string]bool{ownerID: true}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		rules = append(rules, []string{id, RoleMember, groupID})
	}

	if len(rules) > 0 {
		if _, err := e.enforcer.AddGroupingPolicies(rules); err != nil {
			return fmt.Errorf("failed to add roles for %s: %w", groupID, err)
		}
	}

	if e.cache != nil {
		e.cache.invalidateGroup(groupID)
	}
	return nil
}

// RolesInGroup returns the roles userID holds in groupID.
func (e *Enforcer) RolesInGroup(userID, groupID string) []string {
	//nolint:errcheck // GetFilteredGroupingPolicy only fails if the enforcer is nil
	rules, _ := e.enforcer.GetFilteredGroupingPolicy(0, userID, "", groupID)
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		roles = append(roles, rule[1])
	}
	return roles
}

// GetPolicy returns all permission rules.
func (e *Enforcer) GetPolicy() [][]string {
	//nolint:errcheck // GetPolicy only fails if the enforcer is nil
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// Close stops the decision cache.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
