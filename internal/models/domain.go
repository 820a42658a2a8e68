// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package models

// DomainStatus is the verification state of a custom domain.
type DomainStatus string

const (
	DomainStatusNone          DomainStatus = "none"
	DomainStatusPending       DomainStatus = "pending"
	DomainStatusVerified      DomainStatus = "verified"
	DomainStatusMisconfigured DomainStatus = "misconfigured"
)

// DNSRecord is one record the group owner must create at their DNS provider.
type DNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DomainConfig is the custom domain attached to a group.
type DomainConfig struct {
	GroupID string       `json:"groupId"`
	Domain  string       `json:"domain,omitempty"`
	Status  DomainStatus `json:"status"`
	Records []DNSRecord  `json:"records,omitempty"`
}
