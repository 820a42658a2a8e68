// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package services

import (
	"context"
	"fmt"
	"time"
)

// TeardownService holds a resource that was opened before the tree started
// (embedded NATS server, realtime bus, session manager) and releases it
// when the tree stops.
type TeardownService struct {
	name    string
	timeout time.Duration
	release func(ctx context.Context) error
}

// NewTeardownService creates a TeardownService. A non-positive timeout
// means 10s.
func NewTeardownService(name string, timeout time.Duration, release func(ctx context.Context) error) *TeardownService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TeardownService{name: name, timeout: timeout, release: release}
}

// Closer adapts a Close method to a release func.
func Closer(closeFn func() error) func(context.Context) error {
	return func(context.Context) error { return closeFn() }
}

// Serve implements suture.Service. It blocks until ctx ends, then runs
// release once.
func (s *TeardownService) Serve(ctx context.Context) error {
	<-ctx.Done()

	releaseCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.release(releaseCtx); err != nil {
		return fmt.Errorf("%s release failed: %w", s.name, err)
	}
	return ctx.Err()
}

func (s *TeardownService) String() string {
	return s.name
}
