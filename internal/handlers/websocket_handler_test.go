package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
	"github.com/ternarybob/vendo/internal/services/events"
)

// dialTestSocket connects a client to the handler and consumes the hello
// frame so tests only see broadcast traffic.
func dialTestSocket(t *testing.T, handler *WebSocketHandler) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var hello WSMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("Failed to read hello frame: %v", err)
	}
	if hello.Type != "hello" {
		t.Fatalf("Expected hello as first frame, got %q", hello.Type)
	}
	return conn
}

func TestWebSocketHello(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{})

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read hello frame: %v", err)
	}
	if msg.Type != "hello" {
		t.Fatalf("Expected hello frame, got %q", msg.Type)
	}

	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected hello payload object, got %T", msg.Payload)
	}
	instanceID, _ := payload["server_instance_id"].(string)
	if instanceID == "" {
		t.Error("Expected server_instance_id in hello payload")
	}
	if handler.ClientCount() != 1 {
		t.Errorf("Expected 1 connected client, got %d", handler.ClientCount())
	}
}

func TestBroadcastLogFanOut(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{})

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	numSubscribers := 3
	numLogs := 4

	received := make([][]LogEntry, numSubscribers)
	var receivedMutex sync.Mutex
	var wg sync.WaitGroup
	wg.Add(numSubscribers)

	conns := make([]*websocket.Conn, numSubscribers)
	for i := 0; i < numSubscribers; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect subscriber %d: %v", i, err)
		}
		conns[i] = conn

		idx := i
		go func() {
			defer wg.Done()
			defer conn.Close()
			conn.SetReadDeadline(time.Now().Add(3 * time.Second))

			for {
				var msg WSMessage
				if err := conn.ReadJSON(&msg); err != nil {
					return
				}
				if msg.Type != "log" {
					continue
				}
				data, err := json.Marshal(msg.Payload)
				if err != nil {
					continue
				}
				var entry LogEntry
				if err := json.Unmarshal(data, &entry); err != nil {
					continue
				}
				receivedMutex.Lock()
				received[idx] = append(received[idx], entry)
				receivedMutex.Unlock()
			}
		}()
	}

	// Wait for all subscribers to register
	deadline := time.Now().Add(2 * time.Second)
	for handler.ClientCount() < numSubscribers && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if handler.ClientCount() != numSubscribers {
		t.Fatalf("Expected %d connected clients, got %d", numSubscribers, handler.ClientCount())
	}

	for i := 0; i < numLogs; i++ {
		handler.BroadcastLog(LogEntry{
			Timestamp: "10:00:0" + string(rune('0'+i)),
			Level:     "info",
			Message:   "Fetched endpoint " + string(rune('a'+i)),
		})
	}

	time.Sleep(300 * time.Millisecond)
	for _, conn := range conns {
		conn.Close()
	}
	wg.Wait()

	receivedMutex.Lock()
	defer receivedMutex.Unlock()
	for i, entries := range received {
		if len(entries) != numLogs {
			t.Errorf("Subscriber %d received %d logs, expected %d", i, len(entries), numLogs)
		}
	}

	// All clients must be unregistered once their connections drop
	deadline = time.Now().Add(2 * time.Second)
	for handler.ClientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if remaining := handler.ClientCount(); remaining != 0 {
		t.Errorf("Handler still has %d clients after cleanup", remaining)
	}
}

func TestEventBroadcastReachesClients(t *testing.T) {
	eventService := events.NewService(arbor.NewLogger())
	defer eventService.Close()

	handler := NewWebSocketHandler(eventService, arbor.NewLogger(), &common.WebSocketConfig{})
	conn := dialTestSocket(t, handler)

	progress := models.ExtractionProgress{
		State:     models.ExtractionStateCompleted,
		Completed: 8,
		Total:     8,
		UpdatedAt: 1756100000000,
	}
	err := eventService.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventExtractionProgress,
		Payload: progress,
	})
	if err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}

	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read broadcast frame: %v", err)
	}
	if msg.Type != "extraction_progress" {
		t.Fatalf("Expected extraction_progress frame, got %q", msg.Type)
	}

	data, _ := json.Marshal(msg.Payload)
	var got models.ExtractionProgress
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to decode progress payload: %v", err)
	}
	if got.State != models.ExtractionStateCompleted || got.Completed != 8 {
		t.Errorf("Unexpected progress payload: %+v", got)
	}
}

func TestEventWhitelistFiltersBroadcasts(t *testing.T) {
	eventService := events.NewService(arbor.NewLogger())
	defer eventService.Close()

	config := &common.WebSocketConfig{
		AllowedEvents: []string{string(interfaces.EventExtractionProgress)},
	}
	handler := NewWebSocketHandler(eventService, arbor.NewLogger(), config)
	conn := dialTestSocket(t, handler)

	ctx := context.Background()
	eventService.PublishSync(ctx, interfaces.Event{
		Type:    interfaces.EventSnapshotCreated,
		Payload: &models.Snapshot{ID: "snap-1"},
	})
	eventService.PublishSync(ctx, interfaces.Event{
		Type: interfaces.EventExtractionProgress,
		Payload: models.ExtractionProgress{
			State: models.ExtractionStateCompleted,
			Total: 8,
		},
	})

	// The first frame through must be the allowed progress event; the
	// snapshot broadcast was published first and must have been dropped.
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read broadcast frame: %v", err)
	}
	if msg.Type == "snapshot_created" {
		t.Fatal("Whitelist should have dropped the snapshot broadcast")
	}
	if msg.Type != "extraction_progress" {
		t.Errorf("Expected extraction_progress frame, got %q", msg.Type)
	}
}

func TestProgressThrottleSkipsMidRunUpdates(t *testing.T) {
	eventService := events.NewService(arbor.NewLogger())
	defer eventService.Close()

	config := &common.WebSocketConfig{
		ThrottleIntervals: map[string]string{
			string(interfaces.EventExtractionProgress): "1h",
		},
	}
	handler := NewWebSocketHandler(eventService, arbor.NewLogger(), config)
	conn := dialTestSocket(t, handler)

	ctx := context.Background()
	// First mid-run update consumes the throttle token, the second is dropped.
	for i := 1; i <= 2; i++ {
		eventService.PublishSync(ctx, interfaces.Event{
			Type: interfaces.EventExtractionProgress,
			Payload: models.ExtractionProgress{
				State:     models.ExtractionStateRunning,
				Completed: i,
				Total:     8,
			},
		})
	}
	// Terminal updates bypass the throttle entirely.
	eventService.PublishSync(ctx, interfaces.Event{
		Type: interfaces.EventExtractionProgress,
		Payload: models.ExtractionProgress{
			State:     models.ExtractionStateCompleted,
			Completed: 8,
			Total:     8,
		},
	})

	var states []string
	for i := 0; i < 2; i++ {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read frame %d: %v", i, err)
		}
		data, _ := json.Marshal(msg.Payload)
		var got models.ExtractionProgress
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Failed to decode progress payload: %v", err)
		}
		states = append(states, got.State)
	}

	if states[0] != models.ExtractionStateRunning || states[1] != models.ExtractionStateCompleted {
		t.Errorf("Expected running then completed, got %v", states)
	}
}
