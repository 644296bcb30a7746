package devtools

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

// MessageType is the type of a stream message.
type MessageType string

const (
	MessageFrame MessageType = "frame"
	MessageError MessageType = "error"
)

// Message is sent to inspector clients over the WebSocket.
type Message struct {
	Type    MessageType  `json:"type"`
	Seq     uint64       `json:"seq,omitempty"`
	Patches []vdom.Patch `json:"patches,omitempty"`
	HTML    string       `json:"html,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// client is one WebSocket connection. A connection supports one writer at
// a time, so writes hold mu.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Stream fans applied frames out to WebSocket clients.
type Stream struct {
	clients  map[*websocket.Conn]*client
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewStream creates a new stream.
func NewStream() *Stream {
	return &Stream{
		clients: make(map[*websocket.Conn]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool
			},
		},
	}
}

// HandleWebSocket upgrades the request and keeps the client registered
// until it disconnects.
func (s *Stream) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = &client{conn: conn}
	s.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Broadcast sends msg to all clients. Clients that fail are dropped.
func (s *Stream) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			s.mu.Lock()
			delete(s.clients, c.conn)
			s.mu.Unlock()
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close closes all client connections.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}
