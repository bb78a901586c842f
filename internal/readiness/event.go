// Package readiness provides the level-triggered "network is usable" signal
// that telemetry and log-upload collaborators wait on.
package readiness

import (
	"context"
	"sync"
)

// Event is a broadcast condition. Set wakes every waiter; Clear re-arms it.
// It is not a counter: repeated Set calls without a Clear are idempotent, and
// a waiter that is not blocked when the event toggles may miss the toggle.
type Event struct {
	mu    sync.Mutex
	ch    chan struct{} // closed while the event is set
	isSet bool
}

// New creates a cleared event
func New() *Event {
	return &Event{ch: make(chan struct{})}
}

// Set marks the event and releases all current waiters.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isSet {
		return
	}
	e.isSet = true
	close(e.ch)
}

// Clear resets the event so future Wait calls block.
func (e *Event) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isSet {
		return
	}
	e.isSet = false
	e.ch = make(chan struct{})
}

// IsSet reports the current level
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSet
}

// Done returns a channel closed when the event is next (or currently) set.
func (e *Event) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

// Wait blocks until the event is set or ctx is done. It returns immediately
// when the event is already set.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
