package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client-originated event names.
const (
	clientEventHeartbeat  = "heartbeat"
	clientEventJoinGroup  = "join-group"
	clientEventLeaveGroup = "leave-group"
)

// ErrSessionClosed indicates a send against a session whose socket is gone.
var ErrSessionClosed = errors.New("realtime: session closed")

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Session wraps one websocket connection. All writes flow through a buffered
// channel drained by a single writer goroutine, so concurrent fan-out emits
// never race on the socket. A full buffer drops the event rather than
// blocking the emitter.
type Session struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    string
	connID    string
	send      chan outboundEnvelope
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// NewSession wraps an upgraded websocket connection for the given user.
func NewSession(hub *Hub, conn *websocket.Conn, userID string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan outboundEnvelope, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Send queues one event for delivery. Never blocks: when the session buffer
// is full or the session is closed the event is dropped and an error returned.
func (s *Session) Send(event string, payload interface{}) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- outboundEnvelope{Event: event, Data: payload}:
		return nil
	default:
		return errors.New("realtime: send buffer full")
	}
}

// Run registers the session with the hub, subscribes the initial groups and
// blocks until the socket closes. Deregistration is handled on the way out.
func (s *Session) Run(groupIDs []string) {
	s.connID = s.hub.Connect(s.userID, groupIDs, s)
	go s.writeLoop()
	s.readLoop()
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.Disconnect(s.userID, s.connID)
		_ = s.conn.Close()
	})
}

func (s *Session) readLoop() {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error",
					zap.String("connection", s.connID), zap.Error(err))
			}
			return
		}

		var incoming envelope
		if err := json.Unmarshal(data, &incoming); err != nil {
			s.logger.Debug("malformed client event",
				zap.String("connection", s.connID), zap.Error(err))
			continue
		}
		s.handleClientEvent(incoming)
	}
}

func (s *Session) handleClientEvent(incoming envelope) {
	switch incoming.Event {
	case clientEventHeartbeat:
		s.hub.Heartbeat(s.userID, s.connID)
	case clientEventJoinGroup, clientEventLeaveGroup:
		var body struct {
			GroupID string `json:"groupId"`
		}
		if err := json.Unmarshal(incoming.Data, &body); err != nil || body.GroupID == "" {
			return
		}
		if incoming.Event == clientEventJoinGroup {
			s.hub.JoinGroup(s.userID, s.connID, body.GroupID)
		} else {
			s.hub.LeaveGroup(s.userID, s.connID, body.GroupID)
		}
	default:
		// Unknown client events are ignored, not faults.
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
