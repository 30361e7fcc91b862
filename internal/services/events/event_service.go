package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
)

// subscription pairs a handler with its registration ID so unsubscribing
// removes exactly the registration it came from.
type subscription struct {
	id      uint64
	handler interfaces.EventHandler
}

// Service implements EventService interface with pub/sub pattern
type Service struct {
	subscribers map[interfaces.EventType][]subscription
	nextID      uint64
	mu          sync.RWMutex
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType][]subscription),
		logger:      logger,
	}
}

// Subscribe registers a handler for an event type and returns the unregister
// function for that registration. A nil handler returns a no-op unregister.
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subscribers[eventType] = append(s.subscribers[eventType], subscription{id: id, handler: handler})
	count := len(s.subscribers[eventType])
	s.mu.Unlock()

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", count).
		Msg("Event handler subscribed")

	return func() {
		s.unsubscribe(eventType, id)
	}
}

// unsubscribe removes a registration by ID. Repeat calls are no-ops.
func (s *Service) unsubscribe(eventType interfaces.EventType, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[eventType]
	for i, sub := range subs {
		if sub.id == id {
			s.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			s.logger.Debug().
				Str("event_type", string(eventType)).
				Msg("Event handler unsubscribed")
			return
		}
	}
}

// Publish sends an event to all subscribers asynchronously
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	subs := make([]subscription, len(s.subscribers[event.Type]))
	copy(subs, s.subscribers[event.Type])
	s.mu.RUnlock()

	if len(subs) == 0 {
		s.logger.Debug().
			Str("event_type", string(event.Type)).
			Msg("No subscribers for event")
		return nil
	}

	s.logger.Debug().
		Str("event_type", string(event.Type)).
		Int("subscriber_count", len(subs)).
		Msg("Publishing event")

	for _, sub := range subs {
		go func(h interfaces.EventHandler) {
			if err := h(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
			}
		}(sub.handler)
	}

	return nil
}

// PublishSync sends an event to all subscribers and waits for them. Handler
// errors are aggregated; delivery order across handlers is not defined.
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	subs := make([]subscription, len(s.subscribers[event.Type]))
	copy(subs, s.subscribers[event.Type])
	s.mu.RUnlock()

	if len(subs) == 0 {
		s.logger.Debug().
			Str("event_type", string(event.Type)).
			Msg("No subscribers for event")
		return nil
	}

	s.logger.Debug().
		Str("event_type", string(event.Type)).
		Int("subscriber_count", len(subs)).
		Msg("Publishing event synchronously")

	var wg sync.WaitGroup
	errChan := make(chan error, len(subs))

	for _, sub := range subs {
		wg.Add(1)
		go func(h interfaces.EventHandler) {
			defer wg.Done()
			if err := h(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
				errChan <- err
			}
		}(sub.handler)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("event handlers failed: %d errors", len(errs))
	}

	return nil
}

// Close shuts down the event service
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = make(map[interfaces.EventType][]subscription)
	s.logger.Info().Msg("Event service closed")

	return nil
}
