package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avoronkov/peerchat-server/internal/proto"
	"github.com/avoronkov/peerchat-server/internal/store"
)

// fakeMessageStore records saved messages in order and can be told to fail.
type fakeMessageStore struct {
	saved   []*store.Message
	failing bool
	nextID  int64
}

func (f *fakeMessageStore) SaveMessage(_ context.Context, msg *store.Message) error {
	if f.failing {
		return errors.New("disk full")
	}
	f.nextID++
	msg.ID = f.nextID
	f.saved = append(f.saved, msg)
	return nil
}

func (f *fakeMessageStore) ListConversation(_ context.Context, _, _ string, _ int) ([]*store.Message, error) {
	return f.saved, nil
}

func newTestRouter(messages store.MessageStore) (*Router, *Registry, *Tracker) {
	logger := zerolog.Nop()
	registry := NewRegistry()
	tracker := NewTracker()
	return NewRouter(registry, tracker, messages, &logger), registry, tracker
}

func mustFrame(t *testing.T, payload []byte) proto.ChatFrame {
	t.Helper()

	var frame proto.ChatFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("unmarshal delivered frame: %v", err)
	}
	return frame
}

func recvFrame(t *testing.T, c *Client) proto.ChatFrame {
	t.Helper()

	select {
	case payload := <-c.Events():
		return mustFrame(t, payload)
	default:
		t.Fatalf("expected a delivered frame for %s", c.Identity)
		return proto.ChatFrame{}
	}
}

func TestRouterDeliversToBothParticipants(t *testing.T) {
	messages := &fakeMessageStore{}
	router, registry, _ := newTestRouter(messages)

	alice := NewClient("c1", "alice@example.com", 0)
	bob := NewClient("c2", "bob@example.com", 0)
	registry.Register(alice)
	registry.Register(bob)

	// The client-claimed sender must be ignored.
	frame := []byte(`{"chatId":"bob@example.com","content":"hi","sender":"mallory@example.com"}`)
	if err := router.HandleFrame(context.Background(), alice, frame); err != nil {
		t.Fatalf("handle frame: %v", err)
	}

	for _, c := range []*Client{alice, bob} {
		got := recvFrame(t, c)
		if got.Sender != "alice@example.com" {
			t.Fatalf("sender not stamped for %s: %q", c.Identity, got.Sender)
		}
		if got.Content != "hi" || got.ChatID != "bob@example.com" {
			t.Fatalf("unexpected frame for %s: %+v", c.Identity, got)
		}
		if got.ID != "1" {
			t.Fatalf("expected persistence id on the wire, got %q", got.ID)
		}
	}

	if len(messages.saved) != 1 {
		t.Fatalf("expected exactly one persisted message, got %d", len(messages.saved))
	}
	if messages.saved[0].Sender != "alice@example.com" {
		t.Fatalf("persisted sender not stamped: %q", messages.saved[0].Sender)
	}
}

func TestRouterEchoOnlyWhenPeerOffline(t *testing.T) {
	messages := &fakeMessageStore{}
	router, registry, _ := newTestRouter(messages)

	alice := NewClient("c1", "alice@example.com", 0)
	registry.Register(alice)

	frame := []byte(`{"chatId":"bob@example.com","content":"you there?"}`)
	if err := router.HandleFrame(context.Background(), alice, frame); err != nil {
		t.Fatalf("sending to an offline peer must not fail: %v", err)
	}

	got := recvFrame(t, alice)
	if got.Content != "you there?" {
		t.Fatalf("unexpected echo: %+v", got)
	}

	// The message is still persisted for later polling.
	if len(messages.saved) != 1 {
		t.Fatalf("expected message persisted, got %d", len(messages.saved))
	}
}

func TestRouterMalformedFrameDropped(t *testing.T) {
	messages := &fakeMessageStore{}
	router, registry, _ := newTestRouter(messages)

	alice := NewClient("c1", "alice@example.com", 0)
	registry.Register(alice)

	for _, frame := range [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"content":"missing chat id"}`),
		[]byte(`{"chatId":"bob@example.com"}`),
	} {
		err := router.HandleFrame(context.Background(), alice, frame)
		if !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("frame %q: expected ErrMalformedFrame, got %v", frame, err)
		}
	}

	if len(messages.saved) != 0 {
		t.Fatalf("malformed frames must never be persisted, got %d", len(messages.saved))
	}
	select {
	case payload := <-alice.Events():
		t.Fatalf("malformed frame must never be delivered, got %s", payload)
	default:
	}
}

func TestRouterPersistenceFailureAbortsDelivery(t *testing.T) {
	messages := &fakeMessageStore{failing: true}
	router, registry, _ := newTestRouter(messages)

	alice := NewClient("c1", "alice@example.com", 0)
	bob := NewClient("c2", "bob@example.com", 0)
	registry.Register(alice)
	registry.Register(bob)

	frame := []byte(`{"chatId":"bob@example.com","content":"hi"}`)
	err := router.HandleFrame(context.Background(), alice, frame)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	for _, c := range []*Client{alice, bob} {
		select {
		case payload := <-c.Events():
			t.Fatalf("unsaved message must not be delivered to %s: %s", c.Identity, payload)
		default:
		}
	}
}

func TestRouterDeregistersBrokenRecipient(t *testing.T) {
	messages := &fakeMessageStore{}
	router, registry, _ := newTestRouter(messages)

	alice := NewClient("c1", "alice@example.com", 0)
	bob := NewClient("c2", "bob@example.com", 0)
	registry.Register(alice)
	registry.Register(bob)

	// Bob's connection died but its disconnect handler has not run yet.
	bob.Close()

	frame := []byte(`{"chatId":"bob@example.com","content":"hi"}`)
	if err := router.HandleFrame(context.Background(), alice, frame); err != nil {
		t.Fatalf("handle frame: %v", err)
	}

	if _, ok := registry.Lookup("bob@example.com"); ok {
		t.Fatalf("broken recipient must be removed from the registry")
	}
	// Alice still got her echo.
	recvFrame(t, alice)
}

func TestRouterSelfChatDeliversOnce(t *testing.T) {
	messages := &fakeMessageStore{}
	router, registry, _ := newTestRouter(messages)

	alice := NewClient("c1", "alice@example.com", 0)
	registry.Register(alice)

	frame := []byte(`{"chatId":"alice@example.com","content":"note to self"}`)
	if err := router.HandleFrame(context.Background(), alice, frame); err != nil {
		t.Fatalf("handle frame: %v", err)
	}

	recvFrame(t, alice)
	select {
	case payload := <-alice.Events():
		t.Fatalf("self chat must not be delivered twice, got %s", payload)
	default:
	}
}

func TestRouterMarksSenderActivity(t *testing.T) {
	messages := &fakeMessageStore{}
	router, registry, tracker := newTestRouter(messages)

	alice := NewClient("c1", "alice@example.com", 0)
	registry.Register(alice)
	tracker.MarkOnline("alice@example.com")

	frame := []byte(`{"chatId":"bob@example.com","content":"hi"}`)
	if err := router.HandleFrame(context.Background(), alice, frame); err != nil {
		t.Fatalf("handle frame: %v", err)
	}

	rec, ok := tracker.Query("alice@example.com")
	if !ok || !rec.Online || rec.LastSeen == nil {
		t.Fatalf("expected activity recorded for sender, got %+v", rec)
	}
}
