package core

import "sync"

// Client is one open duplex channel bound to a single identity. The ID is
// unique per connection; several consecutive connections may carry the same
// identity, only the newest one is kept in the registry.
type Client struct {
	ID       string
	Identity string

	mu     sync.Mutex
	closed bool
	events chan []byte
}

// DefaultSendQueueSize bounds the outbound queue when no explicit size is
// given.
const DefaultSendQueueSize = 32

// NewClient constructs a client with a bounded outbound queue.
func NewClient(id, identity string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = DefaultSendQueueSize
	}
	return &Client{
		ID:       id,
		Identity: identity,
		events:   make(chan []byte, queueSize),
	}
}

// Events returns the outbound queue consumed by the connection's write loop.
func (c *Client) Events() <-chan []byte {
	return c.events
}

// Send enqueues a serialized message for delivery. Once the client is closed
// it returns ErrClientGone. A full queue drops the message instead of
// blocking the sender on a slow consumer.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientGone
	}

	select {
	case c.events <- payload:
	default:
		// Drop if slow consumer.
	}
	return nil
}

// Close marks the client gone and closes its outbound queue. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
