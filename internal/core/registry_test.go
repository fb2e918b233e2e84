package core

import "testing"

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	alice := NewClient("c1", "alice@example.com", 0)
	reg.Register(alice)

	got, ok := reg.Lookup("alice@example.com")
	if !ok || got != alice {
		t.Fatalf("expected to find alice's client, got %v ok=%v", got, ok)
	}

	if _, ok := reg.Lookup("bob@example.com"); ok {
		t.Fatalf("expected bob to be absent")
	}
}

func TestRegistryReconnectReplacesEntry(t *testing.T) {
	reg := NewRegistry()

	old := NewClient("c1", "alice@example.com", 0)
	reg.Register(old)

	// Reconnect under the same identity.
	fresh := NewClient("c2", "alice@example.com", 0)
	reg.Register(fresh)

	got, ok := reg.Lookup("alice@example.com")
	if !ok || got != fresh {
		t.Fatalf("expected newest connection to win, got %+v", got)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected single entry, got %d", reg.Len())
	}
}

func TestRegistryStaleUnregisterKeepsNewerConnection(t *testing.T) {
	reg := NewRegistry()

	old := NewClient("c1", "alice@example.com", 0)
	reg.Register(old)

	fresh := NewClient("c2", "alice@example.com", 0)
	reg.Register(fresh)

	// The old connection's disconnect handler runs after the reconnect.
	reg.Unregister(old)

	got, ok := reg.Lookup("alice@example.com")
	if !ok || got != fresh {
		t.Fatalf("stale unregister must not evict the newer connection")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()

	alice := NewClient("c1", "alice@example.com", 0)
	reg.Register(alice)

	reg.Unregister(alice)
	reg.Unregister(alice)
	reg.Unregister(alice)

	if _, ok := reg.Lookup("alice@example.com"); ok {
		t.Fatalf("expected alice to stay unregistered")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", reg.Len())
	}
}
