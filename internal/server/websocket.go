package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/premarket/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Read-only feed
	},
}

// WSMessage is the envelope for every message sent to clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Message types
const (
	MessageRanking = "ranking"
)

// Hub keeps the latest ranking and pushes each new one to websocket clients.
type Hub struct {
	logger  arbor.ILogger
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	last    *models.Ranking
	html    string
}

// NewHub creates an empty hub.
func NewHub(logger arbor.ILogger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Publish stores r with its rendered HTML and broadcasts it.
func (h *Hub) Publish(r models.Ranking, html string) {
	h.mu.Lock()
	h.last = &r
	h.html = html
	h.mu.Unlock()

	data, err := json.Marshal(WSMessage{Type: MessageRanking, Payload: r})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal ranking message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn, mu := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, mu)
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutexes[i].Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutexes[i].Unlock()
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send ranking to client")
		}
	}
}

// Last returns the most recent ranking and its HTML, if any.
func (h *Hub) Last() (models.Ranking, string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return models.Ranking{}, "", false
	}
	return *h.last, h.html, true
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the connection, sends the latest ranking and keeps the
// connection registered until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	// The connection lock is taken before the client becomes visible to
	// Publish, so the replay of last is always written before any newer ranking.
	mu := &sync.Mutex{}
	mu.Lock()
	h.mu.Lock()
	h.clients[conn] = mu
	last := h.last
	h.mu.Unlock()

	var replayErr error
	if last != nil {
		replayErr = conn.WriteJSON(WSMessage{Type: MessageRanking, Payload: last})
	}
	mu.Unlock()

	h.logger.Debug().Int("clients", h.Clients()).Msg("WebSocket client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Int("clients", remaining).Msg("WebSocket client disconnected")
	}()

	if replayErr != nil {
		return
	}

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}
