// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package search

import (
	"context"
	"time"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = time.Second

// Debouncer delivers the last input value once no new input has arrived
// for delay. fire runs on the debouncer goroutine, one call at a time.
type Debouncer struct {
	delay time.Duration
	fire  func(string)
	input chan string
	done  chan struct{}
}

// NewDebouncer starts a debouncer that lives until ctx is canceled. A
// pending value is dropped on cancel.
func NewDebouncer(ctx context.Context, delay time.Duration, fire func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{
		delay: delay,
		fire:  fire,
		input: make(chan string),
		done:  make(chan struct{}),
	}
	go d.run(ctx)
	return d
}

// Input records v and restarts the quiet period.
func (d *Debouncer) Input(v string) {
	select {
	case d.input <- v:
	case <-d.done:
	}
}

// Done is closed once the debouncer goroutine has exited.
func (d *Debouncer) Done() <-chan struct{} {
	return d.done
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.done)

	timer := time.NewTimer(d.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var pending string
	armed := false
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-d.input:
			pending = v
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(d.delay)
			armed = true
		case <-timer.C:
			armed = false
			d.fire(pending)
		}
	}
}
