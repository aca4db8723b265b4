package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsIdlePingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// serveAnalysisWS streams every current result for ?session=ID. Clients may
// also send {"type":"analyze","payload":{...}} to queue a search for that
// session; the reply is an "accepted" message carrying the ticket.
func (h *Handler) serveAnalysisWS(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	if session == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "session is required"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: h.hub, session: session, send: make(chan []byte, 16)}
	h.hub.Register(client)

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			h.hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "analyze":
			var body AnalyzeRequest
			if err := json.Unmarshal(msg.Payload, &body); err != nil {
				client.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(errorResponse{Message: "invalid payload"})})
				continue
			}
			req, err := h.analysisRequest(body)
			if err != nil {
				client.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(errorResponse{Message: err.Error()})})
				continue
			}
			ticket := h.analysis.Submit(session, req)
			client.sendJSON(wsMessage{Type: "accepted", Payload: mustMarshal(acceptedPayload{Ticket: ticket})})
		}
	}
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
