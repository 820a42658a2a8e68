// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("backend unavailable: circuit open")

	// ErrUploadFailed wraps every upload failure.
	ErrUploadFailed = errors.New("upload failed")
)

// TransportError is a non-2xx HTTP reply from the hosted backend, as opposed
// to an action-level status carried in a 200 reply body.
type TransportError struct {
	Action     string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend returned HTTP %d: %s", e.Action, e.StatusCode, e.Body)
}
