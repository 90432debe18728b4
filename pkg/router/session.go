package router

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/transport"
)

// LiveViewSession binds one websocket connection to its component instance.
type LiveViewSession struct {
	ID       string
	SocketID string

	Component core.Component
	Socket    *core.Socket
	Transport *transport.WebSocket

	// Params and Session are captured from the upgrade request.
	Params  core.Params
	Session core.Session

	CreatedAt time.Time

	joinRef      string
	topic        string
	lastActivity time.Time
	mounted      bool
	version      uint64

	slotHashes map[string]uint64
	slotMu     sync.RWMutex

	cancel    context.CancelFunc
	closeOnce sync.Once

	mu sync.RWMutex
}

// NewLiveViewSession creates a session for socketID.
func NewLiveViewSession(socketID string, comp core.Component, params core.Params, session core.Session) *LiveViewSession {
	now := time.Now()
	return &LiveViewSession{
		ID:           uuid.NewString(),
		SocketID:     socketID,
		Component:    comp,
		Params:       params,
		Session:      session,
		CreatedAt:    now,
		lastActivity: now,
	}
}

// GetSlotHashes returns the slot hashes of the last render sent.
func (s *LiveViewSession) GetSlotHashes() map[string]uint64 {
	s.slotMu.RLock()
	defer s.slotMu.RUnlock()
	return s.slotHashes
}

// SetSlotHashes records the slot hashes of the last render sent.
func (s *LiveViewSession) SetSlotHashes(hashes map[string]uint64) {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	s.slotHashes = hashes
}

// NextVersion increments and returns the diff version.
func (s *LiveViewSession) NextVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

// UpdateActivity marks the session as active now.
func (s *LiveViewSession) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns when the session last received a message.
func (s *LiveViewSession) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// SetMounted marks the component as mounted.
func (s *LiveViewSession) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = mounted
}

// IsMounted reports whether the component has been mounted.
func (s *LiveViewSession) IsMounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

// SetJoinRef records the ref of the join message.
func (s *LiveViewSession) SetJoinRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinRef = ref
}

// JoinRef returns the ref of the join message.
func (s *LiveViewSession) JoinRef() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinRef
}

// SetTopic records the topic the client joined.
func (s *LiveViewSession) SetTopic(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topic = topic
}

// Topic returns the topic the client joined.
func (s *LiveViewSession) Topic() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topic
}

// LiveViewSessionManager tracks active sessions.
type LiveViewSessionManager struct {
	sessions map[string]*LiveViewSession
	bySocket map[string]*LiveViewSession

	// 0 means unlimited.
	maxSessions int
	sessionTTL  time.Duration

	mu sync.RWMutex
}

// LiveViewSessionManagerConfig configures the session manager.
type LiveViewSessionManagerConfig struct {
	MaxSessions int
	SessionTTL  time.Duration
}

// DefaultSessionManagerConfig returns the default configuration.
func DefaultSessionManagerConfig() *LiveViewSessionManagerConfig {
	return &LiveViewSessionManagerConfig{
		MaxSessions: 10000,
		SessionTTL:  30 * time.Minute,
	}
}

// NewLiveViewSessionManagerWithConfig creates a manager with config.
func NewLiveViewSessionManagerWithConfig(config *LiveViewSessionManagerConfig) *LiveViewSessionManager {
	if config == nil {
		config = DefaultSessionManagerConfig()
	}
	return &LiveViewSessionManager{
		sessions:    make(map[string]*LiveViewSession),
		bySocket:    make(map[string]*LiveViewSession),
		maxSessions: config.MaxSessions,
		sessionTTL:  config.SessionTTL,
	}
}

// Add registers lv. At capacity the least recently active session is
// dropped to make room and returned; the caller must close it.
func (m *LiveViewSessionManager) Add(lv *LiveViewSession) (evicted *LiveViewSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		evicted = m.evictOldestLocked()
	}
	m.sessions[lv.ID] = lv
	m.bySocket[lv.SocketID] = lv
	return evicted
}

// Get returns a session by ID.
func (m *LiveViewSessionManager) Get(sessionID string) (*LiveViewSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// GetBySocket returns a session by socket ID.
func (m *LiveViewSessionManager) GetBySocket(socketID string) (*LiveViewSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.bySocket[socketID]
	return s, ok
}

// Remove forgets a session.
func (m *LiveViewSessionManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		delete(m.bySocket, s.SocketID)
		delete(m.sessions, sessionID)
	}
}

// Count returns the number of active sessions.
func (m *LiveViewSessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// All returns every session.
func (m *LiveViewSessionManager) All() []*LiveViewSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*LiveViewSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

// Cleanup removes sessions idle longer than the TTL and returns them so the
// caller can close their connections.
func (m *LiveViewSessionManager) Cleanup() []*LiveViewSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var expired []*LiveViewSession
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > m.sessionTTL {
			delete(m.bySocket, s.SocketID)
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	return expired
}

// evictOldestLocked must be called with m.mu held.
func (m *LiveViewSessionManager) evictOldestLocked() *LiveViewSession {
	var oldest *LiveViewSession
	for _, s := range m.sessions {
		if oldest == nil || s.LastActivity().Before(oldest.LastActivity()) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(m.bySocket, oldest.SocketID)
		delete(m.sessions, oldest.ID)
	}
	return oldest
}
