// -----------------------------------------------------------------------
// Last Modified: Tuesday, 25th August 2026 2:10:33 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every WebSocket frame
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogEntry is one log line shaped for the dashboard activity feed
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// WebSocketHandler pushes extraction progress, status changes, snapshots and
// log lines to connected dashboard clients.
type WebSocketHandler struct {
	logger            arbor.ILogger
	clients           map[*websocket.Conn]bool
	clientMutex       map[*websocket.Conn]*sync.Mutex
	mu                sync.RWMutex
	eventService      interfaces.EventService
	progressThrottler *rate.Limiter   // Rate limiter for extraction.progress events
	allowedEvents     map[string]bool // Whitelist of events to broadcast (empty = allow all)
	serverInstanceID  string          // Unique ID generated on startup - clients use to detect server restart
}

// NewWebSocketHandler creates the handler and subscribes it to the event bus
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		allowedEvents:    make(map[string]bool),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	// Empty whitelist means allow all events
	if config != nil && len(config.AllowedEvents) > 0 {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}
		logger.Debug().
			Int("allowed_events", len(h.allowedEvents)).
			Msg("Initialized event whitelist for WebSocketHandler")
	}

	// Nil throttler = no throttling
	if config != nil {
		if intervalStr, ok := config.ThrottleIntervals[string(interfaces.EventExtractionProgress)]; ok {
			if duration, err := time.ParseDuration(intervalStr); err == nil {
				h.progressThrottler = rate.NewLimiter(rate.Every(duration), 1)
				logger.Debug().
					Str("event_type", string(interfaces.EventExtractionProgress)).
					Str("interval", intervalStr).
					Msg("Throttler initialized for extraction progress events")
			} else {
				logger.Warn().
					Err(err).
					Str("interval", intervalStr).
					Msg("Failed to parse extraction progress throttle interval - throttler disabled")
			}
		}
	}

	if eventService != nil {
		h.SubscribeToEvents()
	}

	return h
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendHello(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// sendHello sends the connection greeting to a single client. Clients compare
// server_instance_id across reconnects to detect a server restart.
func (h *WebSocketHandler) sendHello(conn *websocket.Conn) {
	msg := WSMessage{
		Type: "hello",
		Payload: map[string]interface{}{
			"server_instance_id": h.serverInstanceID,
			"timestamp":          time.Now().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal hello message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send hello")
		}
	}
}

// broadcast fans one message out to every connected client
func (h *WebSocketHandler) broadcast(msgType string, payload interface{}) {
	msg := WSMessage{
		Type:    msgType,
		Payload: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to send message to client")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastLog sends a log line to all connected clients.
// NOTE: Never log from inside this method - logging here would feed the log
// writer, which calls back into this method, creating an infinite loop.
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcast("log", entry)
}

// allowed checks the event whitelist (empty whitelist = allow all)
func (h *WebSocketHandler) allowed(eventType interfaces.EventType) bool {
	if len(h.allowedEvents) == 0 {
		return true
	}
	return h.allowedEvents[string(eventType)]
}

// SubscribeToEvents bridges the event bus onto the WebSocket fan-out
func (h *WebSocketHandler) SubscribeToEvents() {
	if h.eventService == nil {
		return
	}

	h.eventService.Subscribe(interfaces.EventExtractionProgress, func(ctx context.Context, event interfaces.Event) error {
		progress, ok := event.Payload.(models.ExtractionProgress)
		if !ok {
			h.logger.Warn().Msg("Invalid extraction progress event payload type")
			return nil
		}

		if !h.allowed(interfaces.EventExtractionProgress) {
			return nil
		}

		// Terminal states always go out; only mid-run updates are throttled
		if !progress.IsTerminal() && h.progressThrottler != nil && !h.progressThrottler.Allow() {
			return nil
		}

		h.broadcast("extraction_progress", progress)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventStatusChanged, func(ctx context.Context, event interfaces.Event) error {
		payload, ok := event.Payload.(map[string]interface{})
		if !ok {
			h.logger.Warn().Msg("Invalid status changed event payload type")
			return nil
		}

		if !h.allowed(interfaces.EventStatusChanged) {
			return nil
		}

		h.broadcast("app_status", payload)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventSnapshotCreated, func(ctx context.Context, event interfaces.Event) error {
		snapshot, ok := event.Payload.(*models.Snapshot)
		if !ok {
			h.logger.Warn().Msg("Invalid snapshot created event payload type")
			return nil
		}

		if !h.allowed(interfaces.EventSnapshotCreated) {
			return nil
		}

		h.broadcast("snapshot_created", snapshot)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventCredentialsUpdated, func(ctx context.Context, event interfaces.Event) error {
		// Payload carries only the client ID; secrets never reach the bus
		if !h.allowed(interfaces.EventCredentialsUpdated) {
			return nil
		}

		h.broadcast("credentials_updated", event.Payload)
		return nil
	})
}
