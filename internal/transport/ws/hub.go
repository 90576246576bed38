package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgLeaderboardUpdate MessageType = "leaderboard_update"
	MsgSessionUpdate     MessageType = "session_update"
	MsgError             MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans out two feeds: the public leaderboard stream and per-user
// session streams.
type Hub struct {
	lbConns   map[*Connection]bool
	userConns map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *outbound
}

// Connection represents one WebSocket client
type Connection struct {
	UserID      string // empty for anonymous leaderboard watchers
	Leaderboard bool
	Send        chan []byte
	Hub         *Hub
}

type outbound struct {
	toUser      string
	leaderboard bool
	message     *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		lbConns:    make(map[*Connection]bool),
		userConns:  make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *outbound, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.Leaderboard {
				h.lbConns[conn] = true
				log.Printf("Leaderboard watcher connected (%d total)", len(h.lbConns))
			} else {
				if h.userConns[conn.UserID] == nil {
					h.userConns[conn.UserID] = make(map[*Connection]bool)
				}
				h.userConns[conn.UserID][conn] = true
				log.Printf("User %s connected to session feed", conn.UserID)
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.Leaderboard {
				if h.lbConns[conn] {
					delete(h.lbConns, conn)
					close(conn.Send)
				}
			} else {
				if conns, ok := h.userConns[conn.UserID]; ok && conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.userConns, conn.UserID)
					}
					log.Printf("User %s disconnected from session feed", conn.UserID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.message)

			if msg.leaderboard {
				for conn := range h.lbConns {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else if conns, ok := h.userConns[msg.toUser]; ok {
				for conn := range conns {
					select {
					case conn.Send <- data:
					default:
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastLeaderboard pushes the ranking to every watcher (implements service.Broadcaster)
func (h *Hub) BroadcastLeaderboard(payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &outbound{
		leaderboard: true,
		message: &Message{
			Type:    MsgLeaderboardUpdate,
			Payload: data,
		},
	}
}

// BroadcastToUser pushes a session event to one user's connections (implements service.Broadcaster)
func (h *Hub) BroadcastToUser(userID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &outbound{
		toUser: userID,
		message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
