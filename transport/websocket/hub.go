package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/lastword/game/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured public host once deployments set one
		return true
	},
}

// Message is the envelope for every frame in both directions.
type Message struct {
	SessionID string          `json:"session_id,omitempty"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// outbound is Message with an unencoded payload.
type outbound struct {
	SessionID string      `json:"session_id"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub tracks connected clients by session and delivers session events to
// them. It implements service.Notifier.
type Hub struct {
	mu sync.RWMutex

	// Registered clients by lower-cased session ID
	sessions map[string]map[*Client]bool
}

var (
	_ service.Notifier = (*Hub)(nil)
	_ service.Admitter = (*Hub)(nil)
)

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*Client]bool),
	}
}

// ServeWS upgrades the request and attaches the connection to a session as
// playerID. Session events reach the connection only once the player has
// joined; until then it only gets replies to its own requests.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID, playerID string, svc service.GameService) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h, conn, sessionID, playerID, svc)
	h.registerClient(client)

	go client.writePump()
	go client.readPump()
}

// Broadcast sends an event to every client in a session
func (h *Hub) Broadcast(sessionID, event string, data interface{}) {
	h.deliver(sessionID, "", event, data)
}

// Send sends an event to the clients of one player in a session
func (h *Hub) Send(sessionID, playerID, event string, data interface{}) {
	h.deliver(sessionID, playerID, event, data)
}

// Admit lets session events through to the connections of playerID.
func (h *Hub) Admit(sessionID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.sessions[strings.ToLower(sessionID)] {
		if client.playerID == playerID {
			client.admitted = true
		}
	}
}

// ClientCount returns the number of open connections for a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[strings.ToLower(sessionID)])
}

// deliver queues an event for the matching admitted clients. An empty
// playerID matches everyone. Clients whose queue is full are dropped.
func (h *Hub) deliver(sessionID, playerID, event string, data interface{}) {
	payload, err := json.Marshal(outbound{SessionID: sessionID, Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal websocket message")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.sessions[strings.ToLower(sessionID)] {
		if !client.admitted || (playerID != "" && client.playerID != playerID) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Warn().Str("session", sessionID).Str("player", client.playerID).Msg("dropping slow websocket client")
		h.unregisterClient(client)
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := strings.ToLower(client.sessionID)
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*Client]bool)
	}
	h.sessions[key][client] = true

	log.Debug().
		Str("session", client.sessionID).
		Int("clients", len(h.sessions[key])).
		Msg("websocket client registered")
}

// unregisterClient removes a client from a session and closes its queue.
// It reports whether the client was still registered.
func (h *Hub) unregisterClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := strings.ToLower(client.sessionID)
	clients, ok := h.sessions[key]
	if !ok || !clients[client] {
		return false
	}
	delete(clients, client)
	close(client.send)

	// Clean up empty sessions
	if len(clients) == 0 {
		delete(h.sessions, key)
	}

	log.Debug().
		Str("session", client.sessionID).
		Int("remaining", len(clients)).
		Msg("websocket client unregistered")
	return true
}

// reply queues an event for a single client if it is still registered.
func (h *Hub) reply(client *Client, event string, data interface{}) {
	payload, err := json.Marshal(outbound{SessionID: client.sessionID, Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal websocket message")
		return
	}

	slow := false
	h.mu.RLock()
	if h.sessions[strings.ToLower(client.sessionID)][client] {
		select {
		case client.send <- payload:
		default:
			slow = true
		}
	}
	h.mu.RUnlock()

	if slow {
		h.unregisterClient(client)
	}
}
