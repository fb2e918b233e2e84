package core

import (
	"errors"
	"testing"
)

func TestClientSendAfterCloseReturnsGone(t *testing.T) {
	c := NewClient("c1", "alice@example.com", 4)
	c.Close()

	if err := c.Send([]byte("hi")); !errors.Is(err, ErrClientGone) {
		t.Fatalf("expected ErrClientGone, got %v", err)
	}
}

func TestClientCloseIdempotent(t *testing.T) {
	c := NewClient("c1", "alice@example.com", 4)
	c.Close()
	c.Close()
}

func TestClientFullQueueDropsInsteadOfBlocking(t *testing.T) {
	c := NewClient("c1", "alice@example.com", 2)

	for i := 0; i < 10; i++ {
		if err := c.Send([]byte("x")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	// Only the queue capacity worth of messages is retained.
	count := 0
	for {
		select {
		case <-c.Events():
			count++
			continue
		default:
		}
		break
	}
	if count != 2 {
		t.Fatalf("expected 2 retained messages, got %d", count)
	}
}
