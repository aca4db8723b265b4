package httpserver

import (
	"encoding/json"
	"log"
	"sync"

	"checkers/internal/server/analysis"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type acceptedPayload struct {
	Ticket string `json:"ticket"`
}

// Hub fans analysis results out to the websocket clients watching the
// result's session.
type Hub struct {
	mu        sync.Mutex
	clients   map[*Client]struct{}
	broadcast chan analysis.Result
}

type Client struct {
	hub     *Hub
	session string
	send    chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan analysis.Result, 64),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case res := <-h.broadcast:
			msg := wsMessage{Type: "analysis", Payload: mustMarshal(resultToDTO(res))}
			h.mu.Lock()
			for client := range h.clients {
				if client.session == res.Session {
					client.sendJSON(msg)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish never blocks the search goroutine; a full queue drops the result.
func (h *Hub) Publish(res analysis.Result) {
	if res.Session == "" {
		return
	}
	select {
	case h.broadcast <- res:
	default:
		log.Printf("[server] hub queue full, dropped result %s for %q", res.Ticket, res.Session)
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
