// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package backend defines the server actions and file upload service the
components depend on, and the HTTP client for the hosted backend.

The interfaces are the seam between the sync components and whatever
implements the data layer: HTTPClient and HTTPUploader for the hosted
backend, or internal/localbackend for a self-hosted SQLite deployment.

Resilience:
  - Outbound calls are rate limited with golang.org/x/time/rate.
  - A gobreaker circuit breaker opens after consecutive transport failures;
    while open, calls fail fast with ErrCircuitOpen.
  - Non-2xx HTTP replies are TransportError. Action-level failures arrive
    as a 200 reply whose Status field is not 200.
*/
package backend
