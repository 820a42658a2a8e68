// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/grouphub/internal/logging"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	ctx := context.Background()
	r.Notify(ctx, Success("Saved", "ok"))
	r.Notify(ctx, Error("Upload failed", "boom"))
	r.Notify(ctx, Error("Upload failed", "boom again"))

	if got := len(r.All()); got != 3 {
		t.Fatalf("len(All()) = %d, want 3", got)
	}
	if got := r.Count(LevelError); got != 2 {
		t.Errorf("Count(error) = %d, want 2", got)
	}
	if got := r.Count(LevelWarning); got != 0 {
		t.Errorf("Count(warning) = %d, want 0", got)
	}
}

func TestMultiAndFunc(t *testing.T) {
	t.Parallel()

	a, b := &Recorder{}, &Recorder{}
	var seen []Level
	m := Multi{a, b, Func(func(_ context.Context, n Notification) { seen = append(seen, n.Level) })}

	m.Notify(context.Background(), Warning("Partial", "icon failed"))

	if len(a.All()) != 1 || len(b.All()) != 1 {
		t.Error("every notifier should receive the notification")
	}
	if len(seen) != 1 || seen[0] != LevelWarning {
		t.Errorf("seen = %v", seen)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(prev)

	LogNotifier{}.Notify(context.Background(), Error("Domain", "invalid domain"))

	out := buf.String()
	if !strings.Contains(out, `"title":"Domain"`) || !strings.Contains(out, "invalid domain") {
		t.Errorf("log output = %s", out)
	}
}

func TestScoped(t *testing.T) {
	t.Parallel()

	fallback, scoped := &Recorder{}, &Recorder{}
	n := Scoped{Fallback: fallback}

	n.Notify(context.Background(), Success("Saved", "ok"))
	if len(fallback.All()) != 1 {
		t.Error("fallback should receive without a scoped target")
	}

	ctx := WithNotifier(context.Background(), scoped)
	n.Notify(ctx, Error("Failed", "no"))
	if scoped.Count(LevelError) != 1 || fallback.Count(LevelError) != 1 {
		t.Errorf("scoped=%v fallback=%v", scoped.All(), fallback.All())
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context reported a notifier")
	}
}
