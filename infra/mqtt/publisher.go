package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kilianp07/tripshift/core/logger"
)

// Publisher sends JSON documents below a base topic.
type Publisher interface {
	Publish(ctx context.Context, subtopic string, v any) error
	Close()
}

// New returns a connected Paho publisher, or a NopPublisher when no broker
// is configured.
func New(cfg Config, log logger.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		return NopPublisher{}, nil
	}
	return NewPahoPublisher(cfg, log)
}

// NopPublisher discards everything.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close()                                     {}

// MockPublisher records payloads per subtopic. Used in tests.
type MockPublisher struct {
	Messages map[string][]byte
	FailOn   map[string]bool
	Closed   bool
	mu       sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages: make(map[string][]byte),
		FailOn:   make(map[string]bool),
	}
}

// Publish records the encoded message or fails if configured to.
func (m *MockPublisher) Publish(_ context.Context, subtopic string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn[subtopic] {
		return fmt.Errorf("publish failed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.Messages[subtopic] = b
	return nil
}

// Message returns the payload last published on subtopic.
func (m *MockPublisher) Message(subtopic string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Messages[subtopic]
	return b, ok
}

func (m *MockPublisher) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}
