package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Sender delivers one named event to a single live connection. Implementations
// must not block; delivery is fire-and-forget.
type Sender interface {
	Send(event string, payload interface{}) error
}

// Fanout routes events to every live connection in a group room. It never
// touches durable storage and gives no per-recipient acknowledgment: a
// recipient that errors is logged and skipped, at most once per Emit call.
type Fanout struct {
	mu      sync.RWMutex
	rooms   *Rooms
	senders map[string]Sender
	logger  *zap.Logger
}

// NewFanout constructs a fan-out bound to the given room registry.
func NewFanout(rooms *Rooms, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		rooms:   rooms,
		senders: make(map[string]Sender),
		logger:  logger,
	}
}

// Attach registers the sender for a connection id.
func (f *Fanout) Attach(connID string, sender Sender) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.senders[connID] = sender
}

// Detach forgets the sender for a connection id.
func (f *Fanout) Detach(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.senders, connID)
}

// Emit delivers the payload to every connection currently in the group room.
// The recipient set is snapshotted first, so a connection that disconnects
// mid-emit is silently skipped rather than corrupting anything.
func (f *Fanout) Emit(groupID, event string, payload interface{}) {
	connIDs := f.rooms.ConnectionsIn(groupID)
	if len(connIDs) == 0 {
		return
	}

	f.mu.RLock()
	recipients := make(map[string]Sender, len(connIDs))
	for _, connID := range connIDs {
		if sender, ok := f.senders[connID]; ok {
			recipients[connID] = sender
		}
	}
	f.mu.RUnlock()

	for connID, sender := range recipients {
		if err := sender.Send(event, payload); err != nil {
			f.logger.Debug("fanout delivery failed",
				zap.String("event", event),
				zap.String("group", groupID),
				zap.String("connection", connID),
				zap.Error(err))
		}
	}
}

// SendTo delivers the payload to one connection, if it is still attached.
func (f *Fanout) SendTo(connID, event string, payload interface{}) {
	f.mu.RLock()
	sender, ok := f.senders[connID]
	f.mu.RUnlock()
	if !ok {
		return
	}
	if err := sender.Send(event, payload); err != nil {
		f.logger.Debug("direct delivery failed",
			zap.String("event", event),
			zap.String("connection", connID),
			zap.Error(err))
	}
}
