package status

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// AppState represents the application state
type AppState string

const (
	StateIdle       AppState = "idle"
	StateExtracting AppState = "extracting"
)

// Service manages application status
type Service struct {
	state        AppState
	mu           sync.RWMutex
	eventService interfaces.EventService
	logger       arbor.ILogger
	metadata     map[string]interface{}
	startedAt    time.Time
}

// NewService creates a new StatusService
func NewService(eventService interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		state:        StateIdle,
		eventService: eventService,
		logger:       logger,
		metadata:     make(map[string]interface{}),
		startedAt:    time.Now(),
	}
}

// GetState returns the current application state (thread-safe)
func (s *Service) GetState() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState updates the application state and broadcasts the change
func (s *Service) SetState(state AppState, metadata map[string]interface{}) {
	s.mu.Lock()
	oldState := s.state
	s.state = state
	if metadata != nil {
		s.metadata = metadata
	} else {
		s.metadata = make(map[string]interface{})
	}
	s.mu.Unlock()

	if oldState != state {
		s.logger.Info().
			Str("old_state", string(oldState)).
			Str("new_state", string(state)).
			Msg("Application state changed")
	}

	// Publish state change event
	payload := map[string]interface{}{
		"state":     string(state),
		"metadata":  metadata,
		"timestamp": time.Now(),
	}
	event := interfaces.Event{
		Type:    interfaces.EventStatusChanged,
		Payload: payload,
	}
	s.eventService.Publish(context.Background(), event)
}

// GetStatus returns the full status including state, metadata, and uptime
func (s *Service) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Deep copy metadata to avoid concurrent modification
	metadataCopy := make(map[string]interface{})
	for k, v := range s.metadata {
		metadataCopy[k] = v
	}

	return map[string]interface{}{
		"state":     string(s.state),
		"metadata":  metadataCopy,
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp": time.Now(),
	}
}

// SubscribeToExtractionEvents subscribes to extraction progress events to
// automatically track the extracting/idle state.
func (s *Service) SubscribeToExtractionEvents() {
	s.eventService.Subscribe(interfaces.EventExtractionProgress, func(ctx context.Context, event interfaces.Event) error {
		progress, ok := event.Payload.(models.ExtractionProgress)
		if !ok {
			return nil
		}

		switch progress.State {
		case models.ExtractionStateRunning:
			s.SetState(StateExtracting, map[string]interface{}{
				"endpoint":  progress.Endpoint,
				"completed": progress.Completed,
				"total":     progress.Total,
			})
		case models.ExtractionStateCompleted, models.ExtractionStateError:
			s.SetState(StateIdle, nil)
		}

		return nil
	})

	s.logger.Info().Msg("StatusService subscribed to extraction events")
}
