package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is pushed to a user's connected devices when their timeline changes
type WSEvent struct {
	Type      string `json:"type"`
	EntryID   string `json:"entry_id,omitempty"`
	BlobURL   string `json:"blob_url,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// WSHub tracks WebSocket connections per user. A user may have several
// devices connected at once; events fan out to all of them.
type WSHub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		conns: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Register adds a WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}

	log.Info().Str("user_id", userID).Int("devices", len(h.conns[userID])).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, exists := h.conns[userID]; exists {
		if _, ok := set[conn]; ok {
			conn.Close()
			delete(set, conn)
			if len(set) == 0 {
				delete(h.conns, userID)
			}
			log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
		}
	}
}

// BroadcastToUser sends an event to every device the user has connected.
// Dead connections are dropped along the way.
func (h *WSHub) BroadcastToUser(userID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Str("user_id", userID).Err(err).Msg("Dropping dead WebSocket connection")
			h.Unregister(userID, conn)
		}
	}
}

// IsOnline reports whether the user has at least one connected device
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// Close shuts down every tracked connection
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.conns {
		for conn := range set {
			conn.Close()
		}
		delete(h.conns, userID)
	}
}
