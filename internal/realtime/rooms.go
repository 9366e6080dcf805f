package realtime

import "sync"

// Rooms tracks which group rooms each live connection has joined. This is a
// transport-level fact about the socket and is never authoritative over the
// durable membership store. Operations on unknown connection ids are no-ops.
type Rooms struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

// NewRooms constructs an empty subscription registry.
func NewRooms() *Rooms {
	return &Rooms{conns: make(map[string]map[string]struct{})}
}

// Subscribe joins the connection to the group room.
func (r *Rooms) Subscribe(connID, groupID string) {
	if connID == "" || groupID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		r.conns[connID] = make(map[string]struct{})
	}
	r.conns[connID][groupID] = struct{}{}
}

// Unsubscribe removes the connection from the group room. The connection's
// entry stays, even with an empty room set, until DropConnection removes it;
// a connection is tracked here for exactly as long as it is live.
func (r *Rooms) Unsubscribe(connID, groupID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if groups, ok := r.conns[connID]; ok {
		delete(groups, groupID)
	}
}

// DropConnection removes the connection's entry entirely. Callers that need
// the connection's rooms for presence recomputation must read GroupsOf first.
func (r *Rooms) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

// GroupsOf returns a copy of the connection's current room set; unknown
// connections yield an empty slice.
func (r *Rooms) GroupsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := r.conns[connID]
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	return ids
}

// Subscribed reports whether the connection is currently in the group room.
func (r *Rooms) Subscribed(connID, groupID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[connID][groupID]
	return ok
}

// ConnectionsIn returns the ids of every connection currently in the group room.
func (r *Rooms) ConnectionsIn(groupID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for connID, groups := range r.conns {
		if _, ok := groups[groupID]; ok {
			ids = append(ids, connID)
		}
	}
	return ids
}
