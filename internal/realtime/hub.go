package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event names carried on the live transport.
const (
	EventUserOnline  = "user-online"
	EventUserOffline = "user-offline"
	EventNewSound    = "new-sound"
	EventNewMessage  = "newMessage"
)

// PresencePayload is the body of user-online and user-offline events.
type PresencePayload struct {
	UserID string `json:"userId"`
}

// Hub owns the connection and room registries and computes presence
// transitions. A user is online in a group iff at least one of their live
// connections is in that room; the online event fires only for the first such
// connection and the offline event only after the last one is gone.
//
// A single hub mutex serializes connect/disconnect/heartbeat/join/leave so
// the two registries never disagree mid-transition. The mutex is held only
// across in-memory work: emissions go to buffered per-connection channels and
// never block on I/O.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	rooms    *Rooms
	fanout   *Fanout
	logger   *zap.Logger
}

// NewHub constructs a hub with fresh registries.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	rooms := NewRooms()
	return &Hub{
		registry: NewRegistry(),
		rooms:    rooms,
		fanout:   NewFanout(rooms, logger),
		logger:   logger,
	}
}

// Fanout exposes the group fan-out for HTTP handlers and the alert dispatcher.
func (h *Hub) Fanout() *Fanout {
	return h.fanout
}

// Connect registers a new live connection for the user, joins it to the given
// group rooms and announces the user online in every group where this is
// their first subscribed connection. Returns the connection id.
func (h *Hub) Connect(userID string, groupIDs []string, sender Sender) string {
	connID := uuid.NewString()
	h.fanout.Attach(connID, sender)

	h.mu.Lock()
	h.registry.AddConnection(userID, connID)
	for _, groupID := range groupIDs {
		if groupID == "" {
			continue
		}
		firstInGroup := !h.subscribedAnywhereLocked(userID, groupID)
		h.rooms.Subscribe(connID, groupID)
		if firstInGroup {
			h.fanout.Emit(groupID, EventUserOnline, PresencePayload{UserID: userID})
		}
	}
	h.mu.Unlock()

	h.logger.Info("connection opened",
		zap.String("user", userID),
		zap.String("connection", connID),
		zap.Int("groups", len(groupIDs)))
	return connID
}

// Disconnect deregisters the connection. The connection's room set is
// captured before anything is removed; once it is gone from both registries,
// the user is announced offline in every captured group with no remaining
// subscribed connection.
func (h *Hub) Disconnect(userID, connID string) {
	h.mu.Lock()
	groupIDs := h.rooms.GroupsOf(connID)
	h.rooms.DropConnection(connID)
	h.registry.RemoveConnection(userID, connID)
	for _, groupID := range groupIDs {
		if !h.subscribedAnywhereLocked(userID, groupID) {
			h.fanout.Emit(groupID, EventUserOffline, PresencePayload{UserID: userID})
		}
	}
	h.mu.Unlock()

	h.fanout.Detach(connID)
	h.logger.Info("connection closed",
		zap.String("user", userID),
		zap.String("connection", connID))
}

// Heartbeat re-broadcasts the online signal to each of the connection's
// groups. It is an at-least-once keep-alive for clients that missed the
// original event and never changes subscription state.
func (h *Hub) Heartbeat(userID, connID string) {
	h.mu.Lock()
	for _, groupID := range h.rooms.GroupsOf(connID) {
		h.fanout.Emit(groupID, EventUserOnline, PresencePayload{UserID: userID})
	}
	h.mu.Unlock()
}

// JoinGroup subscribes an existing connection to one more group room,
// announcing the user online there if this is their first subscribed
// connection for that group.
func (h *Hub) JoinGroup(userID, connID, groupID string) {
	if groupID == "" {
		return
	}
	h.mu.Lock()
	firstInGroup := !h.subscribedAnywhereLocked(userID, groupID)
	h.rooms.Subscribe(connID, groupID)
	if firstInGroup {
		h.fanout.Emit(groupID, EventUserOnline, PresencePayload{UserID: userID})
	}
	h.mu.Unlock()
}

// LeaveGroup unsubscribes the connection from the group room, announcing the
// user offline there only when they were online and no other connection of
// theirs remains subscribed. Leaving a group the user was never online in is
// a no-op, so repeated or stray leave events cannot forge an offline signal.
func (h *Hub) LeaveGroup(userID, connID, groupID string) {
	h.mu.Lock()
	wasOnline := h.subscribedAnywhereLocked(userID, groupID)
	h.rooms.Unsubscribe(connID, groupID)
	if wasOnline && !h.subscribedAnywhereLocked(userID, groupID) {
		h.fanout.Emit(groupID, EventUserOffline, PresencePayload{UserID: userID})
	}
	h.mu.Unlock()
}

// OnlineInGroup reports whether any of the user's live connections is
// currently subscribed to the group.
func (h *Hub) OnlineInGroup(userID, groupID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribedAnywhereLocked(userID, groupID)
}

func (h *Hub) subscribedAnywhereLocked(userID, groupID string) bool {
	for _, connID := range h.registry.ConnectionsOf(userID) {
		if h.rooms.Subscribed(connID, groupID) {
			return true
		}
	}
	return false
}
