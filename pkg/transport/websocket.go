package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/protocol"
)

// WebSocket is one websocket connection with a read loop, a write loop and a
// ping loop. Incoming frames are decoded onto Receive; Send queues outbound
// messages.
type WebSocket struct {
	config *Config
	codec  protocol.Codec
	conn   *websocket.Conn

	sendCh chan *protocol.Message
	recvCh chan *protocol.Message

	closeCh   chan struct{}
	closeOnce sync.Once
	connected bool
	mu        sync.RWMutex
}

func newWebSocket(conn *websocket.Conn, codec protocol.Codec, config *Config) *WebSocket {
	ws := &WebSocket{
		config:    config,
		codec:     codec,
		conn:      conn,
		sendCh:    make(chan *protocol.Message, config.SendBufferSize),
		recvCh:    make(chan *protocol.Message, config.ReceiveBufferSize),
		closeCh:   make(chan struct{}),
		connected: true,
	}
	conn.SetReadLimit(config.MaxMessageSize)

	go ws.readLoop()
	go ws.writeLoop()
	go ws.pingLoop()
	return ws
}

// Accept upgrades an HTTP request. The codec is chosen from the client's
// subprotocols; clients that offer none get the registry default.
func Accept(w http.ResponseWriter, r *http.Request, codecs *protocol.CodecRegistry, config *Config) (*WebSocket, error) {
	if config == nil {
		config = DefaultConfig()
	}

	origin := r.Header.Get("Origin")
	if !isOriginAllowed(origin, r.Host, config.AllowedOrigins) {
		http.Error(w, "Forbidden: Origin not allowed", http.StatusForbidden)
		return nil, ErrOriginNotAllowed
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   codecs.Names(),
		OriginPatterns: originPatterns(config.AllowedOrigins),
	})
	if err != nil {
		return nil, fmt.Errorf("accept websocket: %w", err)
	}

	return newWebSocket(conn, codecs.Negotiate(conn.Subprotocol()), config), nil
}

// Dial connects to a live endpoint as a client, requesting codec.
func Dial(ctx context.Context, rawURL string, codec protocol.Codec, config *Config) (*WebSocket, error) {
	if config == nil {
		config = DefaultConfig()
	}

	conn, _, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{
		Subprotocols: []string{codec.Name()},
	})
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	if sub := conn.Subprotocol(); sub != codec.Name() {
		conn.Close(websocket.StatusProtocolError, "codec not accepted")
		return nil, fmt.Errorf("server accepted subprotocol %q, wanted %q", sub, codec.Name())
	}

	return newWebSocket(conn, codec, config), nil
}

// Codec returns the negotiated codec.
func (t *WebSocket) Codec() protocol.Codec {
	return t.codec
}

// IsConnected returns the connection status.
func (t *WebSocket) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// Receive returns decoded inbound messages. It is never closed; select on
// Done to detect the end of the connection.
func (t *WebSocket) Receive() <-chan *protocol.Message {
	return t.recvCh
}

// Done is closed when the connection ends.
func (t *WebSocket) Done() <-chan struct{} {
	return t.closeCh
}

// Send queues msg for writing.
func (t *WebSocket) Send(msg *protocol.Message) error {
	if !t.IsConnected() {
		return ErrNotConnected
	}

	timer := time.NewTimer(t.config.WriteTimeout)
	defer timer.Stop()

	select {
	case t.sendCh <- msg:
		return nil
	case <-t.closeCh:
		return ErrConnectionClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

// Close closes the connection. It is safe to call more than once.
func (t *WebSocket) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.connected = false
		t.mu.Unlock()
		close(t.closeCh)
		err = t.conn.Close(websocket.StatusNormalClosure, "closing")
	})
	return err
}

func (t *WebSocket) readLoop() {
	defer t.Close()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), t.config.ReadTimeout)
		_, data, err := t.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}

		msg, err := t.codec.Decode(data)
		if err != nil {
			// Malformed frames are dropped; the connection stays up.
			continue
		}

		select {
		case t.recvCh <- msg:
		case <-t.closeCh:
			return
		}
	}
}

func (t *WebSocket) writeLoop() {
	frame := websocket.MessageText
	if t.codec.Binary() {
		frame = websocket.MessageBinary
	}

	for {
		select {
		case msg := <-t.sendCh:
			data, err := t.codec.Encode(msg)
			if err != nil {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			err = t.conn.Write(ctx, frame, data)
			cancel()
			if err != nil {
				t.Close()
				return
			}

		case <-t.closeCh:
			return
		}
	}
}

func (t *WebSocket) pingLoop() {
	if t.config.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			err := t.conn.Ping(ctx)
			cancel()
			if err != nil {
				t.Close()
				return
			}
		case <-t.closeCh:
			return
		}
	}
}

func isOriginAllowed(origin, requestHost string, allowed []string) bool {
	// No Origin header: not a browser cross-site request.
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}
	if originURL.Host == requestHost {
		return true
	}

	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
		if allowedURL, err := url.Parse(a); err == nil && allowedURL.Host == originURL.Host {
			return true
		}
	}
	return false
}

// originPatterns converts allowed origins into host patterns for the
// websocket library's own origin check.
func originPatterns(allowed []string) []string {
	patterns := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if a == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if u, err := url.Parse(a); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, a)
	}
	return patterns
}
