package core

import (
	"testing"
	"time"
)

func TestTrackerUnknownIdentity(t *testing.T) {
	tracker := NewTracker()

	if _, ok := tracker.Query("ghost@example.com"); ok {
		t.Fatalf("expected unknown identity to report not-found")
	}
}

func TestTrackerOnlineThenOffline(t *testing.T) {
	tracker := NewTracker()

	tracker.MarkOnline("alice@example.com")
	rec, ok := tracker.Query("alice@example.com")
	if !ok {
		t.Fatalf("expected record after MarkOnline")
	}
	if !rec.Online || rec.LastSeen != nil {
		t.Fatalf("expected online with no last_seen, got %+v", rec)
	}

	before := time.Now()
	tracker.MarkOffline("alice@example.com")
	rec, ok = tracker.Query("alice@example.com")
	if !ok {
		t.Fatalf("record must survive going offline")
	}
	if rec.Online || rec.LastSeen == nil {
		t.Fatalf("expected offline with last_seen, got %+v", rec)
	}
	if rec.LastSeen.Before(before.Add(-time.Second)) {
		t.Fatalf("last_seen older than expected: %v", rec.LastSeen)
	}
}

func TestTrackerActivityRefreshesLastSeen(t *testing.T) {
	tracker := NewTracker()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	tracker.MarkOnline("bob@example.com")
	tracker.MarkActivity("bob@example.com")

	rec, _ := tracker.Query("bob@example.com")
	if !rec.Online || rec.LastSeen == nil || !rec.LastSeen.Equal(current) {
		t.Fatalf("unexpected record after activity: %+v", rec)
	}

	current = current.Add(time.Minute)
	tracker.MarkActivity("bob@example.com")

	rec, _ = tracker.Query("bob@example.com")
	if !rec.LastSeen.Equal(current) {
		t.Fatalf("expected last_seen to advance, got %v", rec.LastSeen)
	}
}

func TestTrackerOfflineTimestampNotBeforeActivity(t *testing.T) {
	tracker := NewTracker()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	tracker.MarkActivity("bob@example.com")
	activitySeen := current

	current = current.Add(30 * time.Second)
	tracker.MarkOffline("bob@example.com")

	rec, _ := tracker.Query("bob@example.com")
	if rec.Online {
		t.Fatalf("expected offline")
	}
	if rec.LastSeen.Before(activitySeen) {
		t.Fatalf("offline last_seen %v precedes activity %v", rec.LastSeen, activitySeen)
	}
}

func TestTrackerAlternatesFreely(t *testing.T) {
	tracker := NewTracker()

	for i := 0; i < 3; i++ {
		tracker.MarkOnline("carol@example.com")
		rec, _ := tracker.Query("carol@example.com")
		if !rec.Online {
			t.Fatalf("round %d: expected online", i)
		}

		tracker.MarkOffline("carol@example.com")
		rec, _ = tracker.Query("carol@example.com")
		if rec.Online {
			t.Fatalf("round %d: expected offline", i)
		}
	}
}
