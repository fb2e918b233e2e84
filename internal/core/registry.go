package core

import "sync"

// Registry maps identities to their active connection. It is the single
// source of truth for who is reachable right now.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register installs or overwrites the mapping for the client's identity.
// Last writer wins; the replaced connection gets no eviction notice.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Identity] = c
}

// Lookup returns the active connection for an identity, if any.
func (r *Registry) Lookup(identity string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[identity]
	return c, ok
}

// Unregister removes the entry for the client's identity only if it still
// points at this exact client. A stale disconnect handler must not evict a
// newer connection registered in the interim. Repeated calls are no-ops.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[c.Identity]; ok && current == c {
		delete(r.clients, c.Identity)
	}
}

// Len reports how many identities are currently connected.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
