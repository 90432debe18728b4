package livetest

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
)

// MockTransport implements core.Transport and records what is sent.
type MockTransport struct {
	ID string

	sent   []core.Message
	closed bool
	err    error
	mu     sync.Mutex
}

// NewMockTransport creates a connected mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{ID: "test-" + uuid.NewString()[:8]}
}

// Send records msg, or returns the error set with SetError.
func (m *MockTransport) Send(msg core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if m.closed {
		return core.ErrSocketClosed
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsConnected reports whether Close has not been called.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// SetError makes every following Send fail with err. Pass nil to clear.
func (m *MockTransport) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Sent returns a copy of every message sent.
func (m *MockTransport) Sent() []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Message(nil), m.sent...)
}

// LastSent returns the last message sent, or the zero Message.
func (m *MockTransport) LastSent() core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return core.Message{}
	}
	return m.sent[len(m.sent)-1]
}
