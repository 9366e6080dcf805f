package realtime

import "sync"

// Registry tracks the set of live connection ids open for each user. A user
// has an entry iff at least one connection is live; the entry is removed the
// moment the last connection closes. All operations are idempotent: adding a
// connection twice or removing one that is absent is a no-op.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{}
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]map[string]struct{})}
}

// AddConnection records connID under userID, creating the user entry if absent.
func (r *Registry) AddConnection(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		r.users[userID] = make(map[string]struct{})
	}
	r.users[userID][connID] = struct{}{}
}

// RemoveConnection deletes connID from the user's set and drops the user
// entry entirely when the set becomes empty.
func (r *Registry) RemoveConnection(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connections, ok := r.users[userID]
	if !ok {
		return
	}
	delete(connections, connID)
	if len(connections) == 0 {
		delete(r.users, userID)
	}
}

// ConnectionsOf returns a copy of the user's live connection ids. Unknown
// users yield an empty slice, never an error.
func (r *Registry) ConnectionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connections := r.users[userID]
	ids := make([]string, 0, len(connections))
	for id := range connections {
		ids = append(ids, id)
	}
	return ids
}

// HasConnections reports whether the user currently has at least one live connection.
func (r *Registry) HasConnections(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}
