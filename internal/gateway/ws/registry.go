package ws

import "sync"

// Registry is the set of live connections. It is injected into the hub so
// tests can instantiate independent registries; it is never a package-level
// variable. Delivery iterates under the read lock and closure happens under
// the write lock, so a relay send can never race a connection teardown.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[*Client]struct{})}
}

// add inserts c and reports the resulting connection count.
func (r *Registry) add(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
	return len(r.clients)
}

// remove deletes c and releases its send channel and connection, reporting
// whether it was present and the remaining count.
func (r *Registry) remove(c *Client) (present bool, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		c.close()
		present = true
	}
	return present, len(r.clients)
}

// broadcast enqueues data to every live connection without blocking and
// returns the connections whose buffers were full, plus the number reached.
func (r *Registry) broadcast(data []byte) (stale []*Client, sent int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		if c.deliver(data) {
			sent++
		} else {
			stale = append(stale, c)
		}
	}
	return stale, sent
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
