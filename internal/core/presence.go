package core

import (
	"sync"
	"time"
)

// Record is the presence state of one identity.
type Record struct {
	Online   bool
	LastSeen *time.Time
}

// Tracker keeps online/last-seen state per identity. Records are created on
// first connect and never deleted afterwards.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// MarkOnline records that the identity just connected: online with no
// last-seen timestamp yet.
func (t *Tracker) MarkOnline(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[identity] = Record{Online: true}
}

// MarkActivity refreshes the identity's last-seen timestamp while keeping it
// online.
func (t *Tracker) MarkActivity(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := t.now()
	t.records[identity] = Record{Online: true, LastSeen: &seen}
}

// MarkOffline records a disconnect or explicit logout.
func (t *Tracker) MarkOffline(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := t.now()
	t.records[identity] = Record{Online: false, LastSeen: &seen}
}

// Query returns the presence record for an identity. The second return is
// false for identities that have never connected.
func (t *Tracker) Query(identity string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[identity]
	return rec, ok
}
