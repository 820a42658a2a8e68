// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

// Package notify carries user-visible, dismissible notifications from the
// components to whoever is presenting them.
package notify

import (
	"context"
	"sync"

	"github.com/tomtom215/grouphub/internal/logging"
)

// Level is the severity shown to the user.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one transient message for the user.
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier delivers notifications. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Success, Warning and Error build notifications of the matching level.
func Success(title, message string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: message}
}

func Warning(title, message string) Notification {
	return Notification{Level: LevelWarning, Title: title, Message: message}
}

func Error(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message}
}

// LogNotifier writes notifications to the structured log. It is the
// fallback when no client is attached.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) {
	ev := logging.Ctx(ctx).Info()
	if n.Level == LevelError || n.Level == LevelWarning {
		ev = logging.Ctx(ctx).Warn()
	}
	ev.Str("level", string(n.Level)).Str("title", n.Title).Msg(n.Message)
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		target.Notify(ctx, n)
	}
}

// Recorder collects notifications in memory. HTTP handlers use it to
// return the notifications of one request in the response body.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.list = append(r.list, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.list))
	copy(out, r.list)
	return out
}

// Count returns the number of recorded notifications at level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.list {
		if item.Level == level {
			n++
		}
	}
	return n
}

type ctxKey struct{}

// WithNotifier attaches n to ctx for Scoped to find.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier attached to ctx, if any.
func FromContext(ctx context.Context) (Notifier, bool) {
	n, ok := ctx.Value(ctxKey{}).(Notifier)
	return n, ok && n != nil
}

// Scoped delivers to the notifier attached to the call's context and then
// to Fallback. Components are built once with a Scoped notifier; each
// request or session attaches its own target.
type Scoped struct {
	Fallback Notifier
}

func (s Scoped) Notify(ctx context.Context, n Notification) {
	if target, ok := FromContext(ctx); ok {
		target.Notify(ctx, n)
	}
	if s.Fallback != nil {
		s.Fallback.Notify(ctx, n)
	}
}

var (
	_ Notifier = Scoped{}
	_ Notifier = LogNotifier{}
	_ Notifier = Multi{}
	_ Notifier = (*Recorder)(nil)
	_ Notifier = Func(nil)
)
