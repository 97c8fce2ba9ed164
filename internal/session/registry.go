// Package session maps vehicle ids to their live message channels.
package session

import "sync"

// Channel is the write side of one connected client. Implementations must
// tolerate concurrent Send calls and make sends to a closed channel no-ops.
type Channel interface {
	Send(payload []byte) error
}

// Registry holds at most one channel binding per vehicle id. A new telemetry
// message rebinds the id to whichever channel delivered it, so a vehicle
// moving between clients silently steals its own binding.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Channel)}
}

// Bind points id at ch, replacing any prior binding.
func (r *Registry) Bind(id string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = ch
}

// Lookup returns the channel currently bound to id, if any.
func (r *Registry) Lookup(id string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.byID[id]
	return ch, ok
}

// RemoveChannel drops every binding that points at ch. Called when a
// connection closes.
func (r *Registry) RemoveChannel(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, bound := range r.byID {
		if bound == ch {
			delete(r.byID, id)
		}
	}
}
