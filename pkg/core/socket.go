package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Common socket errors.
var (
	ErrSocketClosed   = errors.New("socket is closed")
	ErrSendFailed     = errors.New("failed to send message")
	ErrInvalidMessage = errors.New("invalid message format")
)

// Transport is the connection a Socket writes to.
type Transport interface {
	Send(msg Message) error
	Close() error
	IsConnected() bool
}

// Message is a server push to the client.
type Message struct {
	Ref     string         `json:"ref,omitempty" msgpack:"ref,omitempty"`
	Topic   string         `json:"topic" msgpack:"topic"`
	Event   string         `json:"event" msgpack:"event"`
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Socket is the server side of one joined browser connection.
type Socket struct {
	id          string
	connectedAt time.Time

	// Unix nanoseconds.
	lastActivity atomic.Int64

	transport Transport
	closed    bool
	mu        sync.RWMutex
}

// NewSocket creates a socket over transport.
func NewSocket(id string, transport Transport) *Socket {
	now := time.Now()
	s := &Socket{
		id:          id,
		connectedAt: now,
		transport:   transport,
	}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// ID returns the socket's unique identifier.
func (s *Socket) ID() string {
	return s.id
}

// Topic is the channel name the client joined.
func (s *Socket) Topic() string {
	return "lv:" + s.id
}

// IsConnected reports whether messages can still be sent.
func (s *Socket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.transport != nil && s.transport.IsConnected()
}

// ConnectedAt returns when the socket connected.
func (s *Socket) ConnectedAt() time.Time {
	return s.connectedAt
}

// LastActivity returns the time of last activity.
func (s *Socket) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// UpdateActivity updates the last activity timestamp.
func (s *Socket) UpdateActivity() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Send writes msg to the transport.
func (s *Socket) Send(msg Message) error {
	s.mu.RLock()
	closed := s.closed
	transport := s.transport
	s.mu.RUnlock()

	if closed || transport == nil || !transport.IsConnected() {
		return ErrSocketClosed
	}

	s.UpdateActivity()

	if err := transport.Send(msg); err != nil {
		if !s.IsConnected() {
			return ErrSocketClosed
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Push sends an event on the socket's topic.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(Message{
		Topic:   s.Topic(),
		Event:   event,
		Payload: payload,
	})
}

// DiffPayload lists the slots whose content changed since the last render.
// Text slots replace textContent, HTML slots replace innerHTML, and Full
// replaces the whole view when the render has no slots.
type DiffPayload struct {
	Version   uint64            `json:"v" msgpack:"v"`
	Slots     map[string]string `json:"s,omitempty" msgpack:"s,omitempty"`
	HTMLSlots map[string]string `json:"h,omitempty" msgpack:"h,omitempty"`
	Full      string            `json:"f,omitempty" msgpack:"f,omitempty"`
}

// IsEmpty returns true if the payload has no changes.
func (d *DiffPayload) IsEmpty() bool {
	return len(d.Slots) == 0 && len(d.HTMLSlots) == 0 && d.Full == ""
}

// Size returns the number of content bytes in the payload.
func (d *DiffPayload) Size() int {
	size := len(d.Full)
	for _, content := range d.Slots {
		size += len(content)
	}
	for _, content := range d.HTMLSlots {
		size += len(content)
	}
	return size
}

// SendDiff pushes a diff event. Empty payloads are not sent.
func (s *Socket) SendDiff(payload *DiffPayload) error {
	if payload == nil || payload.IsEmpty() {
		return nil
	}

	body := map[string]any{"v": payload.Version}
	if len(payload.Slots) > 0 {
		body["s"] = payload.Slots
	}
	if len(payload.HTMLSlots) > 0 {
		body["h"] = payload.HTMLSlots
	}
	if payload.Full != "" {
		body["f"] = payload.Full
	}
	return s.Push("diff", body)
}

// Close closes the socket connection.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	transport := s.transport
	s.mu.Unlock()

	if transport != nil {
		return transport.Close()
	}
	return nil
}

// SocketManager tracks joined sockets.
type SocketManager struct {
	sockets map[string]*Socket
	mu      sync.RWMutex
}

// NewSocketManager creates a new socket manager.
func NewSocketManager() *SocketManager {
	return &SocketManager{
		sockets: make(map[string]*Socket),
	}
}

// Add registers a socket.
func (sm *SocketManager) Add(socket *Socket) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sockets[socket.ID()] = socket
}

// Remove unregisters a socket.
func (sm *SocketManager) Remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sockets, id)
}

// Get retrieves a socket by ID.
func (sm *SocketManager) Get(id string) (*Socket, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sockets[id]
	return s, ok
}

// Count returns the number of active sockets.
func (sm *SocketManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sockets)
}

// Broadcast sends msg to every socket and returns how many sends succeeded.
func (sm *SocketManager) Broadcast(msg Message) int {
	sm.mu.RLock()
	sockets := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		sockets = append(sockets, s)
	}
	sm.mu.RUnlock()

	var sent atomic.Int64
	var wg sync.WaitGroup
	for _, s := range sockets {
		wg.Add(1)
		go func(socket *Socket) {
			defer wg.Done()
			if socket.Send(msg) == nil {
				sent.Add(1)
			}
		}(s)
	}
	wg.Wait()
	return int(sent.Load())
}

// CloseAll closes every socket, stopping early if ctx is done.
func (sm *SocketManager) CloseAll(ctx context.Context) error {
	sm.mu.Lock()
	sockets := sm.sockets
	sm.sockets = make(map[string]*Socket)
	sm.mu.Unlock()

	for _, s := range sockets {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Close()
	}
	return nil
}

// CleanupInactive closes sockets idle for longer than maxInactive.
func (sm *SocketManager) CleanupInactive(maxInactive time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, s := range sm.sockets {
		if now.Sub(s.LastActivity()) > maxInactive {
			s.Close()
			delete(sm.sockets, id)
			removed++
		}
	}
	return removed
}
