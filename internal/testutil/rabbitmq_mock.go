package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/family-health-keeper/backend/internal/messaging"
)

// PublishedEvent is one event captured by MockPublisher.
type PublishedEvent struct {
	RoutingKey string
	EventData  interface{}
	Timestamp  time.Time
	RawJSON    []byte
}

// Record decodes the event as a messaging.RecordEvent.
func (e PublishedEvent) Record(t *testing.T) messaging.RecordEvent {
	t.Helper()

	var ev messaging.RecordEvent
	if err := json.Unmarshal(e.RawJSON, &ev); err != nil {
		t.Fatalf("Failed to decode %s event: %v", e.RoutingKey, err)
	}
	return ev
}

// MockPublisher keeps published events in memory.
type MockPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

var _ messaging.PublisherInterface = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish stores the event after encoding it the way the real publisher does.
func (m *MockPublisher) Publish(_ context.Context, routingKey string, eventData interface{}) error {
	jsonData, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{
		RoutingKey: routingKey,
		EventData:  eventData,
		Timestamp:  time.Now(),
		RawJSON:    jsonData,
	})
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// GetEventsByKey returns all events with the specified routing key
func (m *MockPublisher) GetEventsByKey(routingKey string) []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []PublishedEvent
	for _, event := range m.events {
		if event.RoutingKey == routingKey {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// GetEventCount returns the total number of events published
func (m *MockPublisher) GetEventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Reset clears all published events
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// AssertRecordEvent fails unless an event with routingKey was published
// for recordID.
func (m *MockPublisher) AssertRecordEvent(t *testing.T, routingKey, recordID string) {
	t.Helper()

	for _, e := range m.GetEventsByKey(routingKey) {
		if e.Record(t).Data.RecordID == recordID {
			return
		}
	}
	t.Errorf("Expected %s event for record %s, found none", routingKey, recordID)
}

// AssertEventNotPublished asserts that no events with the given routing key were published
func (m *MockPublisher) AssertEventNotPublished(t *testing.T, routingKey string) {
	t.Helper()

	if n := len(m.GetEventsByKey(routingKey)); n > 0 {
		t.Errorf("Expected no events with routing key '%s', but found %d", routingKey, n)
	}
}
