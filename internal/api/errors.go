// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package api

import "errors"

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeGroupNotFound      = "GROUP_NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_ERROR"
	ErrCodeBackendFailed      = "BACKEND_UNAVAILABLE"
	ErrCodeRejected           = "REJECTED"
	ErrCodeNotImplemented     = "NOT_IMPLEMENTED"
)

var (
	// ErrBodyTooLarge is returned when a request body exceeds its limit.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrUnsupportedMediaType is returned for bodies that are neither JSON
	// nor multipart form data.
	ErrUnsupportedMediaType = errors.New("unsupported content type")
)
