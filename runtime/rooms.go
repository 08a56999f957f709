package runtime

import (
	"sync"

	"chat-relay/contract"

	"github.com/google/uuid"
)

// Rooms indexes which live connections are subscribed to which room. The
// membership model itself is external; this index only answers "which sinks
// receive a broadcast for room X right now".
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[uuid.UUID]contract.EventSink
}

func NewRooms() *Rooms {
	return &Rooms{members: make(map[string]map[uuid.UUID]contract.EventSink)}
}

// Join subscribes a connection to a room. Rooms are created in the index on
// first join.
func (r *Rooms) Join(roomID string, connID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[roomID]; !ok {
		r.members[roomID] = make(map[uuid.UUID]contract.EventSink)
	}
	r.members[roomID][connID] = sink
}

// Sinks snapshots the live subscribers of a room. Nil when the room has no
// subscribers.
func (r *Rooms) Sinks(roomID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers, ok := r.members[roomID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(subscribers))
	for _, sink := range subscribers {
		sinks = append(sinks, sink)
	}
	return sinks
}

// DropConnection removes a closed connection from every room it joined,
// pruning rooms left empty so the index does not grow over time.
func (r *Rooms) DropConnection(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID, subscribers := range r.members {
		delete(subscribers, connID)
		if len(subscribers) == 0 {
			delete(r.members, roomID)
		}
	}
}
