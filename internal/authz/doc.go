// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package authz authorizes group operations with Casbin.

The model is RBAC with domains where each domain is a group ID. Two roles
exist per group: the owner (the group's creator) and member. The
permission table lives in policy.csv:

	owner   settings read/write, gallery write, domain read/write, members read
	member  settings read, domain read, members read

Role assignments are not stored locally. Service loads them from the
backend (group info for the owner, the member list for members) the first
time a group is checked and again after DefaultRoleTTL. Decisions are
cached per group and dropped whenever the group's roles are reloaded.

Custom model and policy files can be supplied with CASBIN_MODEL_PATH and
CASBIN_POLICY_PATH; otherwise the embedded copies are used.
*/
package authz
