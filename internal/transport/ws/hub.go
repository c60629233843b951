package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hectoclash/internal/model"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection is one authenticated socket.
type Connection struct {
	ID       string
	UserID   string
	Username string
	Send     chan []byte

	limiter *rate.Limiter
}

func (c *Connection) Ref() model.PlayerRef {
	return model.PlayerRef{ID: c.UserID, Username: c.Username, ConnID: c.ID}
}

type outbound struct {
	connID string
	group  string
	data   []byte
}

// Hub tracks live connections and named broadcast groups. It implements
// service.Notifier.
type Hub struct {
	conns  map[string]*Connection
	groups map[string]map[string]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *outbound
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		groups:     make(map[string]map[string]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *outbound, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			h.mu.Unlock()
			log.Debug().Str("conn", conn.ID).Str("player", conn.UserID).Msg("connection registered")

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.ID]; ok && existing == conn {
				delete(h.conns, conn.ID)
				for name, members := range h.groups {
					delete(members, conn.ID)
					if len(members) == 0 {
						delete(h.groups, name)
					}
				}
				close(conn.Send)
				log.Debug().Str("conn", conn.ID).Str("player", conn.UserID).Msg("connection unregistered")
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if msg.group == "" {
				if conn, ok := h.conns[msg.connID]; ok {
					h.deliver(conn, msg.data)
				}
			} else {
				for connID := range h.groups[msg.group] {
					if conn, ok := h.conns[connID]; ok {
						h.deliver(conn, msg.data)
					}
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			return
		}
	}
}

func (h *Hub) deliver(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("conn", conn.ID).Msg("send buffer full, dropping message")
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection and its group memberships.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close stops the run loop. Pending messages are discarded.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) enqueue(msg *outbound) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// SendTo queues an event for a single connection.
func (h *Hub) SendTo(connID string, event string, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	h.enqueue(&outbound{connID: connID, data: data})
}

// BroadcastTo queues an event for every member of group.
func (h *Hub) BroadcastTo(group string, event string, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	h.enqueue(&outbound{group: group, data: data})
}

func (h *Hub) Join(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]struct{})
	}
	h.groups[group][connID] = struct{}{}
}

func (h *Hub) Leave(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) CloseGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, group)
}

// Members returns the connection ids in group.
func (h *Hub) Members(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		out = append(out, id)
	}
	return out
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func encode(event string, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(&Message{Type: event, Payload: raw})
}
