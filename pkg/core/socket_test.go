package core

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"
)

type mockTransport struct {
	connected bool
	failSend  error
	messages  []Message
	mu        sync.Mutex
}

func newMockTransport() *mockTransport {
	return &mockTransport{connected: true}
}

func (m *mockTransport) Send(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrSocketClosed
	}
	if m.failSend != nil {
		return m.failSend
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *mockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockTransport) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func TestSocket_Push(t *testing.T) {
	tr := newMockTransport()
	s := NewSocket("abc", tr)

	if err := s.Push("flash", map[string]any{"msg": "hi"}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	msgs := tr.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Topic != "lv:abc" || msgs[0].Event != "flash" {
		t.Errorf("unexpected message %+v", msgs[0])
	}
}

func TestSocket_SendAfterClose(t *testing.T) {
	s := NewSocket("abc", newMockTransport())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.IsConnected() {
		t.Error("socket still connected after Close")
	}
	if err := s.Push("x", nil); !errors.Is(err, ErrSocketClosed) {
		t.Errorf("expected ErrSocketClosed, got %v", err)
	}
	// second close is a no-op
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSocket_SendFailure(t *testing.T) {
	tr := newMockTransport()
	tr.failSend = errors.New("broken pipe")
	s := NewSocket("abc", tr)

	if err := s.Push("x", nil); !errors.Is(err, ErrSendFailed) {
		t.Errorf("expected ErrSendFailed, got %v", err)
	}
}

func TestSocket_SendDiff(t *testing.T) {
	tr := newMockTransport()
	s := NewSocket("abc", tr)

	if err := s.SendDiff(&DiffPayload{Version: 1}); err != nil {
		t.Fatalf("SendDiff empty: %v", err)
	}
	if len(tr.Messages()) != 0 {
		t.Fatal("empty diff should not be sent")
	}

	p := &DiffPayload{Version: 2, HTMLSlots: map[string]string{"content": "<p>x</p>"}}
	if p.Size() != len("<p>x</p>") {
		t.Errorf("Size = %d", p.Size())
	}
	if err := s.SendDiff(p); err != nil {
		t.Fatalf("SendDiff: %v", err)
	}

	msgs := tr.Messages()
	if len(msgs) != 1 || msgs[0].Event != "diff" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if _, ok := msgs[0].Payload["s"]; ok {
		t.Error("empty text slots should be omitted")
	}
	h, _ := msgs[0].Payload["h"].(map[string]string)
	if h["content"] != "<p>x</p>" {
		t.Errorf("html slot = %q", h["content"])
	}
}

func TestSocketManager(t *testing.T) {
	sm := NewSocketManager()
	a := NewSocket("a", newMockTransport())
	b := NewSocket("b", newMockTransport())
	sm.Add(a)
	sm.Add(b)

	if sm.Count() != 2 {
		t.Fatalf("Count = %d", sm.Count())
	}
	if got, ok := sm.Get("a"); !ok || got != a {
		t.Error("Get(a) failed")
	}

	if n := sm.Broadcast(Message{Event: "ping"}); n != 2 {
		t.Errorf("Broadcast sent %d", n)
	}

	sm.Remove("a")
	if _, ok := sm.Get("a"); ok {
		t.Error("a still registered")
	}

	if err := sm.CloseAll(context.Background()); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if sm.Count() != 0 || b.IsConnected() {
		t.Error("CloseAll left sockets open")
	}
}

func TestSocketManager_CleanupInactive(t *testing.T) {
	sm := NewSocketManager()
	idle := NewSocket("idle", newMockTransport())
	idle.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())
	sm.Add(idle)
	sm.Add(NewSocket("fresh", newMockTransport()))

	if n := sm.CleanupInactive(time.Minute); n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	if _, ok := sm.Get("fresh"); !ok {
		t.Error("fresh socket removed")
	}
	if idle.IsConnected() {
		t.Error("idle socket not closed")
	}
}

func TestParams(t *testing.T) {
	p := ParamsFromQuery(url.Values{"page": {"contact", "home"}, "empty": {}})
	if p.Get("page") != "contact" {
		t.Errorf("page = %q", p.Get("page"))
	}
	if p.GetDefault("missing", "home") != "home" {
		t.Error("GetDefault fallback")
	}
	if _, ok := p["empty"]; ok {
		t.Error("empty values should be skipped")
	}
}

func TestBuildContext(t *testing.T) {
	before := time.Now()
	socket := NewSocket("s1", newMockTransport())
	if socket.ConnectedAt().Before(before) || socket.ConnectedAt().After(time.Now()) {
		t.Errorf("ConnectedAt = %v", socket.ConnectedAt())
	}

	ctx := BuildContext(context.Background(), socket, Session{"request_id": "r1", "n": 2})
	if SocketFromContext(ctx) != socket {
		t.Error("socket not in context")
	}
	session := SessionFromContext(ctx)
	if session.GetString("request_id") != "r1" {
		t.Errorf("request_id = %q", session.GetString("request_id"))
	}
	if session.GetString("n") != "" || session.GetString("missing") != "" {
		t.Error("GetString should ignore non-string and missing values")
	}

	empty := context.Background()
	if SocketFromContext(empty) != nil || SessionFromContext(empty).GetString("request_id") != "" {
		t.Error("empty context should yield nothing")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}

	c := DefaultConfig()
	c.Timeouts.SessionTTL = 0
	if !errors.Is(c.Validate(), ErrInvalidTimeout) {
		t.Error("expected ErrInvalidTimeout")
	}

	c = DefaultConfig()
	c.MaxMessageSize = 0
	if !errors.Is(c.Validate(), ErrInvalidMaxMessageSize) {
		t.Error("expected ErrInvalidMaxMessageSize")
	}

	c = DefaultConfig()
	c.MaxSessions = -1
	if !errors.Is(c.Validate(), ErrInvalidMaxSessions) {
		t.Error("expected ErrInvalidMaxSessions")
	}
}

func TestTerminateReasonString(t *testing.T) {
	if TerminateTimeout.String() != "timeout" || TerminateReason(99).String() != "unknown" {
		t.Error("unexpected String output")
	}
}
