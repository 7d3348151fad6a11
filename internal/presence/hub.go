package presence

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"dispatch/internal/metrics"
	"dispatch/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 256
)

// Message types on the presence socket.
const (
	TypeWelcome      = "welcome"
	TypeSnapshot     = "snapshot"
	TypePresence     = "presence"
	TypeError        = "error"
	TypeStartEditing = "start_editing"
	TypeStopEditing  = "stop_editing"
)

// Inbound is sent by clients.
type Inbound struct {
	Type         string    `json:"type"`
	AssignmentID uuid.UUID `json:"assignment_id"`
}

// Outbound is sent to clients. Editors never include the recipient's own session.
type Outbound struct {
	Type         string                  `json:"type"`
	SessionID    string                  `json:"session_id,omitempty"`
	AssignmentID *uuid.UUID              `json:"assignment_id,omitempty"`
	Editors      []model.EditingPresence `json:"editors,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	handle *Handle
}

// Hub owns the connected clients and pushes presence changes to them.
type Hub struct {
	registry   *Registry
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	changed    chan []uuid.UUID
	replies    chan reply
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *logrus.Entry
}

type reply struct {
	client *Client
	msg    Outbound
}

// NewHub builds a hub. An empty allowedOrigins accepts any origin.
func NewHub(registry *Registry, allowedOrigins []string, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Hub{
		registry:   registry,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		changed:    make(chan []uuid.UUID, 64),
		replies:    make(chan reply, 16),
		done:       make(chan struct{}),
		logger:     logger.WithField("component", "presence"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// Run serves registrations and change notifications until ctx is done.
// Only Run touches the clients map.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for sid, c := range h.clients {
				close(c.send)
				delete(h.clients, sid)
			}
			return

		case c := <-h.register:
			h.clients[c.handle.session.ID] = c
			h.deliver(c, Outbound{Type: TypeWelcome, SessionID: c.handle.session.ID})
			h.deliver(c, Outbound{Type: TypeSnapshot, Editors: h.registry.Snapshot(c.handle.session.ID)})
			h.updateGauges()
			h.logger.WithField("session_id", c.handle.session.ID).Debug("presence client registered")

		case c := <-h.unregister:
			sid := c.handle.session.ID
			if _, ok := h.clients[sid]; ok {
				delete(h.clients, sid)
				close(c.send)
			}
			if prev, ok := c.handle.StopEditing(); ok {
				h.broadcast(prev)
			}
			h.updateGauges()
			h.logger.WithField("session_id", sid).Debug("presence client unregistered")

		case ids := <-h.changed:
			for _, id := range ids {
				h.broadcast(id)
			}
			h.updateGauges()

		case r := <-h.replies:
			if _, ok := h.clients[r.client.handle.session.ID]; ok {
				h.deliver(r.client, r.msg)
			}
		}
	}
}

// Notify queues a presence broadcast for the given assignments.
func (h *Hub) Notify(ids ...uuid.UUID) {
	var changed []uuid.UUID
	for _, id := range ids {
		if id != uuid.Nil {
			changed = append(changed, id)
		}
	}
	if len(changed) == 0 {
		return
	}
	select {
	case h.changed <- changed:
	case <-h.done:
	}
}

func (h *Hub) broadcast(assignmentID uuid.UUID) {
	id := assignmentID
	for sid, c := range h.clients {
		h.deliver(c, Outbound{
			Type:         TypePresence,
			AssignmentID: &id,
			Editors:      h.registry.EditingUsers(assignmentID, sid),
		})
	}
}

// deliver drops clients whose buffer is full.
func (h *Hub) deliver(c *Client, msg Outbound) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal presence message")
		return
	}
	select {
	case c.send <- payload:
	default:
		sid := c.handle.session.ID
		if _, ok := h.clients[sid]; ok {
			delete(h.clients, sid)
			close(c.send)
		}
		h.logger.WithField("session_id", sid).Warn("presence client too slow, dropped")
	}
}

func (h *Hub) updateGauges() {
	metrics.SetPresenceSessions(len(h.clients))
	metrics.SetPresenceEditing(h.registry.Len())
}

// ServeWS upgrades the request and attaches a new session for the user.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID, userName string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	session := Session{ID: uuid.NewString(), UserID: userID, UserName: userName}
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		handle: h.registry.For(session),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("unexpected websocket close")
			}
			return
		}
		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reject("malformed message")
			continue
		}

		switch msg.Type {
		case TypeStartEditing:
			if msg.AssignmentID == uuid.Nil {
				c.reject("assignment_id is required")
				continue
			}
			prev := c.handle.StartEditing(msg.AssignmentID)
			if prev != msg.AssignmentID {
				c.hub.Notify(prev, msg.AssignmentID)
			}
		case TypeStopEditing:
			if prev, ok := c.handle.StopEditing(); ok {
				c.hub.Notify(prev)
			}
		default:
			c.reject("unknown message type")
		}
	}
}

// reject answers through the hub goroutine so send is never written after close.
func (c *Client) reject(reason string) {
	select {
	case c.hub.replies <- reply{client: c, msg: Outbound{Type: TypeError, Error: reason}}:
	case <-c.hub.done:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.WithError(err).Warn("failed to write presence message")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
