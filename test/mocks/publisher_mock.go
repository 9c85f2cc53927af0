package mocks

import (
	"context"
	"sync"

	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// MockActivityPublisher implements ports.ActivityPublisher for testing.
// RabbitMQBroker is the production adapter.
type MockActivityPublisher struct {
	mu sync.RWMutex

	PublishedEvents []ports.ActivityEvent

	// Error injection for testing error scenarios
	PublishError error

	PublishCallCount int
}

var _ ports.ActivityPublisher = (*MockActivityPublisher)(nil)

func NewMockActivityPublisher() *MockActivityPublisher {
	return &MockActivityPublisher{
		PublishedEvents: make([]ports.ActivityEvent, 0),
	}
}

// PublishActivity captures published events for verification.
func (m *MockActivityPublisher) PublishActivity(ctx context.Context, evt ports.ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCallCount++

	if m.PublishError != nil {
		return m.PublishError
	}

	m.PublishedEvents = append(m.PublishedEvents, evt)
	return nil
}

// GetPublishedEvents returns a copy of the events published so far.
func (m *MockActivityPublisher) GetPublishedEvents() []ports.ActivityEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]ports.ActivityEvent, len(m.PublishedEvents))
	copy(events, m.PublishedEvents)
	return events
}

// EventsOfType filters the published events by type.
func (m *MockActivityPublisher) EventsOfType(typ ports.ActivityType) []ports.ActivityEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ports.ActivityEvent
	for _, e := range m.PublishedEvents {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockActivityPublisher) GetPublishCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PublishCallCount
}

func (m *MockActivityPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishedEvents = make([]ports.ActivityEvent, 0)
	m.PublishError = nil
	m.PublishCallCount = 0
}
