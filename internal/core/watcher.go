package core

import (
	"context"
	"time"
)

// PresenceUpdate is one snapshot of a watched identity's presence. Known is
// false when the identity has never connected; such an update is terminal.
type PresenceUpdate struct {
	Identity string
	Record   Record
	Known    bool
}

// Watcher produces streamed presence snapshots on a fixed interval.
type Watcher struct {
	tracker  *Tracker
	interval time.Duration
}

// DefaultWatchInterval is the snapshot period when no interval is configured.
const DefaultWatchInterval = 5 * time.Second

// NewWatcher constructs a watcher over the given tracker.
func NewWatcher(tracker *Tracker, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		tracker:  tracker,
		interval: interval,
	}
}

// Watch emits an immediate snapshot for the identity and one more per
// interval until ctx is cancelled. An unknown identity yields exactly one
// terminal update with Known=false. The returned channel is closed when the
// subscription ends; the subscription never outlives ctx.
func (w *Watcher) Watch(ctx context.Context, identity string) <-chan PresenceUpdate {
	updates := make(chan PresenceUpdate, 1)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			rec, known := w.tracker.Query(identity)
			select {
			case updates <- PresenceUpdate{Identity: identity, Record: rec, Known: known}:
			case <-ctx.Done():
				return
			}
			if !known {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates
}
