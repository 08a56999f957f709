package runtime

import (
	"sync"

	"chat-relay/contract"

	"github.com/google/uuid"
)

type presenceEntry struct {
	connID uuid.UUID
	sink   contract.EventSink
}

// Presence maps a user identity to its single live connection. Entirely
// in-memory; an empty registry after restart is correct since presence is
// volatile by nature.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]presenceEntry
}

func NewPresence() *Presence {
	return &Presence{sessions: make(map[string]presenceEntry)}
}

// Register binds a user to a connection, unconditionally replacing any prior
// binding. Last register wins.
func (p *Presence) Register(userID string, connID uuid.UUID, sink contract.EventSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[userID] = presenceEntry{connID: connID, sink: sink}
}

// Lookup returns the live sink for a user. The second result is false when
// the user is offline or was never registered.
func (p *Presence) Lookup(userID string) (contract.EventSink, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.sessions[userID]
	if !ok {
		return nil, false
	}
	return entry.sink, true
}

// Unregister removes the binding only when the stored connection still
// matches. A disconnect for a superseded connection must not evict the entry
// a newer registration owns.
func (p *Presence) Unregister(userID string, connID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.sessions[userID]
	if !ok || entry.connID != connID {
		return false
	}
	delete(p.sessions, userID)
	return true
}

func (p *Presence) Online(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.sessions[userID]
	return ok
}
